package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	fieldListingID = "listingId"
	fieldUserEmail = "userEmail"
	fieldStatus    = "status"
)

type likeDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ListingID string             `bson:"listingId"`
	UserEmail string             `bson:"userEmail"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", repository.ErrInvalidIdentifier, id)
	}
	return oid, nil
}

// storeError wraps a driver failure so both ErrStoreUnavailable and the cause
// match errors.Is. Context errors are passed through unchanged.
func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, repository.ErrStoreUnavailable, err)
}

func idToString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// toInt64 reads a counter written by any client: the original deployment
// stored likes as int32, int64 or double depending on the writer.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	default:
		return time.Time{}, false
	}
}

func listingFromDocument(doc bson.M) *entity.Listing {
	l := &entity.Listing{Attributes: make(map[string]interface{}, len(doc))}
	for k, v := range doc {
		switch k {
		case entity.FieldID:
			l.ID = idToString(v)
		case entity.FieldEmail:
			if s, ok := v.(string); ok {
				l.Email = s
				continue
			}
			l.Attributes[k] = v
		case entity.FieldAvailability:
			if s, ok := v.(string); ok {
				l.Availability = s
				continue
			}
			l.Attributes[k] = v
		case entity.FieldLikes:
			if n, ok := toInt64(v); ok {
				l.Likes = n
				continue
			}
			l.Attributes[k] = v
		case entity.FieldCreatedAt:
			if t, ok := toTime(v); ok {
				l.CreatedAt = t
				continue
			}
			l.Attributes[k] = v
		default:
			l.Attributes[k] = v
		}
	}
	return l
}

func listingToDocument(l *entity.Listing) bson.M {
	doc := make(bson.M, len(l.Attributes)+4)
	for k, v := range l.Attributes {
		if k == entity.FieldID {
			continue
		}
		doc[k] = v
	}
	if l.Email != "" {
		doc[entity.FieldEmail] = l.Email
	}
	if l.Availability != "" {
		doc[entity.FieldAvailability] = l.Availability
	}
	doc[entity.FieldLikes] = l.Likes
	if !l.CreatedAt.IsZero() {
		doc[entity.FieldCreatedAt] = l.CreatedAt
	}
	return doc
}

// updateToDocument builds the $set document for a replace. The identifier and
// the likes counter are never written through this path.
func updateToDocument(fields entity.ListingUpdate) bson.M {
	doc := make(bson.M, len(fields))
	for k, v := range fields {
		switch k {
		case entity.FieldID, entity.FieldLikes:
			continue
		case entity.FieldCreatedAt:
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					doc[k] = t
					continue
				}
			}
		}
		doc[k] = v
	}
	return doc
}

func contactToDocument(msg *entity.ContactMessage) bson.M {
	doc := make(bson.M, len(msg.Fields)+2)
	for k, v := range msg.Fields {
		if k == entity.FieldID {
			continue
		}
		doc[k] = v
	}
	doc[entity.FieldCreatedAt] = msg.CreatedAt
	doc[fieldStatus] = msg.Status
	return doc
}

func updateResult(res *mongo.UpdateResult) *entity.UpdateResult {
	out := &entity.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		id := idToString(res.UpsertedID)
		out.UpsertedID = &id
	}
	return out
}
