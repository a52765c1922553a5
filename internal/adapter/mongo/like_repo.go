package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// LikeMongoRepository stores one document per (listingId, userEmail).
// Uniqueness is enforced by the index created in EnsureIndexes.
type LikeMongoRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

var _ repository.LikeRepository = (*LikeMongoRepository)(nil)

func NewLikeMongoRepository(db *mongo.Database, collectionName string, log *logger.Logger) *LikeMongoRepository {
	return &LikeMongoRepository{
		collection: collection(db, collectionName),
		logger:     log.Named("LikeRepository"),
	}
}

// EnsureIndexes creates the unique (listingId, userEmail) index. It fails if
// the collection already holds duplicate pairs.
func (r *LikeMongoRepository) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: fieldListingID, Value: 1},
			{Key: fieldUserEmail, Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("listing_user_unique"),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return storeError("create like ledger index", err)
	}
	return nil
}

func validListingID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %q", repository.ErrInvalidIdentifier, id)
	}
	return nil
}

func (r *LikeMongoRepository) Exists(ctx context.Context, listingID, userEmail string) (bool, error) {
	if err := validListingID(listingID); err != nil {
		return false, err
	}

	filter := bson.M{fieldListingID: listingID, fieldUserEmail: userEmail}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("failed to look up like", zap.String("listing_id", listingID), zap.Error(err))
		return false, storeError("look up like", err)
	}
	return n > 0, nil
}

func (r *LikeMongoRepository) Record(ctx context.Context, like *entity.Like) error {
	if err := validListingID(like.ListingID); err != nil {
		return err
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}

	doc := likeDocument{
		ListingID: like.ListingID,
		UserEmail: like.UserEmail,
		CreatedAt: like.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("like already recorded", zap.String("listing_id", like.ListingID))
			return repository.ErrAlreadyExists
		}
		r.logger.Error("failed to record like", zap.String("listing_id", like.ListingID), zap.Error(err))
		return storeError("record like", err)
	}
	return nil
}

func (r *LikeMongoRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	if err := validListingID(listingID); err != nil {
		return 0, err
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{fieldListingID: listingID})
	if err != nil {
		return 0, storeError("count likes", err)
	}
	return n, nil
}
