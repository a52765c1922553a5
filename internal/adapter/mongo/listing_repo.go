package mongo

import (
	"context"
	"errors"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ListingMongoRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

var _ repository.ListingRepository = (*ListingMongoRepository)(nil)

func NewListingMongoRepository(db *mongo.Database, collectionName string, log *logger.Logger) *ListingMongoRepository {
	return &ListingMongoRepository{
		collection: collection(db, collectionName),
		logger:     log.Named("ListingRepository"),
	}
}

// EnsureIndexes creates the secondary indexes backing the owner and
// availability queries.
func (r *ListingMongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: entity.FieldEmail, Value: 1}, {Key: entity.FieldCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: entity.FieldAvailability, Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return storeError("create listing indexes", err)
	}
	return nil
}

func (r *ListingMongoRepository) find(ctx context.Context, op string, filter bson.M, opts ...*options.FindOptions) ([]*entity.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		r.logger.Error("find failed", zap.String("op", op), zap.Error(err))
		return nil, storeError(op, err)
	}
	defer cursor.Close(ctx)

	listings := make([]*entity.Listing, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeError(op+": decode", err)
		}
		listings = append(listings, listingFromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError(op+": cursor", err)
	}
	return listings, nil
}

func (r *ListingMongoRepository) ListAll(ctx context.Context) ([]*entity.Listing, error) {
	return r.find(ctx, "list listings", bson.M{})
}

func (r *ListingMongoRepository) ListByAvailability(ctx context.Context, status string, limit int64) ([]*entity.Listing, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, "list listings by availability", bson.M{entity.FieldAvailability: status}, opts)
}

func (r *ListingMongoRepository) ListByOwner(ctx context.Context, email string, newestFirst bool) ([]*entity.Listing, error) {
	opts := options.Find()
	if newestFirst {
		opts.SetSort(bson.D{{Key: entity.FieldCreatedAt, Value: -1}})
	}
	return r.find(ctx, "list listings by owner", bson.M{entity.FieldEmail: email}, opts)
}

func (r *ListingMongoRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	err = r.collection.FindOne(ctx, bson.M{entity.FieldID: oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		r.logger.Error("failed to get listing", zap.String("listing_id", id), zap.Error(err))
		return nil, storeError("get listing", err)
	}
	return listingFromDocument(doc), nil
}

func (r *ListingMongoRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	doc := listingToDocument(listing)
	oid := primitive.NewObjectID()
	doc[entity.FieldID] = oid

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrAlreadyExists
		}
		r.logger.Error("failed to insert listing", zap.Error(err))
		return "", storeError("insert listing", err)
	}

	listing.ID = oid.Hex()
	r.logger.Debug("listing created", zap.String("listing_id", listing.ID))
	return listing.ID, nil
}

func (r *ListingMongoRepository) Replace(ctx context.Context, id string, fields entity.ListingUpdate) (*entity.UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := updateToDocument(fields)
	if len(set) == 0 {
		// $set rejects an empty document; report the match without writing.
		n, err := r.collection.CountDocuments(ctx, bson.M{entity.FieldID: oid})
		if err != nil {
			return nil, storeError("replace listing", err)
		}
		return &entity.UpdateResult{Acknowledged: true, MatchedCount: n}, nil
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{entity.FieldID: oid}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("failed to replace listing", zap.String("listing_id", id), zap.Error(err))
		return nil, storeError("replace listing", err)
	}
	return updateResult(res), nil
}

func (r *ListingMongoRepository) DeleteByID(ctx context.Context, id string) (*entity.DeleteResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{entity.FieldID: oid})
	if err != nil {
		r.logger.Error("failed to delete listing", zap.String("listing_id", id), zap.Error(err))
		return nil, storeError("delete listing", err)
	}
	return &entity.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *ListingMongoRepository) IncrementLikes(ctx context.Context, id string, delta int64) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{entity.FieldLikes: 1})

	var doc bson.M
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{entity.FieldID: oid},
		bson.M{"$inc": bson.M{entity.FieldLikes: delta}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		r.logger.Error("failed to increment likes", zap.String("listing_id", id), zap.Error(err))
		return 0, storeError("increment likes", err)
	}

	likes, _ := toInt64(doc[entity.FieldLikes])
	return likes, nil
}

func (r *ListingMongoRepository) SetLikes(ctx context.Context, id string, likes int64) (*entity.UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{entity.FieldID: oid},
		bson.M{"$set": bson.M{entity.FieldLikes: likes}},
	)
	if err != nil {
		r.logger.Error("failed to set likes", zap.String("listing_id", id), zap.Error(err))
		return nil, storeError("set likes", err)
	}
	return updateResult(res), nil
}

func (r *ListingMongoRepository) SwapLikes(ctx context.Context, id string, expected, likes int64) (*entity.UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{entity.FieldID: oid, entity.FieldLikes: expected}
	if expected == 0 {
		// Documents written without a counter read back as zero.
		filter[entity.FieldLikes] = bson.M{"$in": bson.A{0, nil}}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{entity.FieldLikes: likes}})
	if err != nil {
		r.logger.Error("failed to swap likes", zap.String("listing_id", id), zap.Error(err))
		return nil, storeError("swap likes", err)
	}
	return updateResult(res), nil
}

func (r *ListingMongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storeError("count listings", err)
	}
	return n, nil
}
