package mongo

import (
	"context"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ContactMongoRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

var _ repository.ContactRepository = (*ContactMongoRepository)(nil)

func NewContactMongoRepository(db *mongo.Database, collectionName string, log *logger.Logger) *ContactMongoRepository {
	return &ContactMongoRepository{
		collection: collection(db, collectionName),
		logger:     log.Named("ContactRepository"),
	}
}

func (r *ContactMongoRepository) Create(ctx context.Context, msg *entity.ContactMessage) (string, error) {
	doc := contactToDocument(msg)
	oid := primitive.NewObjectID()
	doc[entity.FieldID] = oid

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("failed to insert contact message", zap.Error(err))
		return "", storeError("insert contact message", err)
	}

	msg.ID = oid.Hex()
	return msg.ID, nil
}
