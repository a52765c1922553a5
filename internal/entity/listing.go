package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	AvailabilityAvailable = "available"

	FieldID           = "_id"
	FieldEmail        = "email"
	FieldAvailability = "availability"
	FieldLikes        = "likes"
	FieldCreatedAt    = "createdAt"
)

var ErrInvalidListing = errors.New("invalid listing document")

// Listing is a roommate advertisement. Email, Availability, Likes and
// CreatedAt are the fields the service reasons about; everything else the
// owner submitted (rent, location, preferences, ...) lives in Attributes and
// is stored and returned untouched.
type Listing struct {
	ID           string
	Email        string
	Availability string
	Likes        int64
	CreatedAt    time.Time
	Attributes   map[string]interface{}
}

// ListingUpdate is the field set applied by a replace. Keys are document
// field names.
type ListingUpdate map[string]interface{}

func (l *Listing) IsAvailable() bool {
	return l.Availability == AvailabilityAvailable
}

// OwnedBy reports whether email is the listing owner. Emails compare
// exactly, the same way stored documents are queried.
func (l *Listing) OwnedBy(email string) bool {
	return l.Email == email
}

func (l Listing) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(l.Attributes)+5)
	for k, v := range l.Attributes {
		out[k] = v
	}
	if l.ID != "" {
		out[FieldID] = l.ID
	}
	if l.Email != "" {
		out[FieldEmail] = l.Email
	}
	if l.Availability != "" {
		out[FieldAvailability] = l.Availability
	}
	out[FieldLikes] = l.Likes
	if !l.CreatedAt.IsZero() {
		out[FieldCreatedAt] = l.CreatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a flat JSON object. An incoming _id is ignored, the
// store assigns identifiers.
func (l *Listing) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: expected an object", ErrInvalidListing)
	}

	parsed := Listing{Attributes: make(map[string]interface{}, len(raw))}
	for k, v := range raw {
		switch k {
		case FieldID:
		case FieldEmail:
			s, ok := v.(string)
			if !ok && v != nil {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidListing, k)
			}
			parsed.Email = s
		case FieldAvailability:
			s, ok := v.(string)
			if !ok && v != nil {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidListing, k)
			}
			parsed.Availability = s
		case FieldLikes:
			n, ok := v.(float64)
			if !ok && v != nil {
				return fmt.Errorf("%w: %s must be a number", ErrInvalidListing, k)
			}
			if n < 0 {
				return fmt.Errorf("%w: %s must not be negative", ErrInvalidListing, k)
			}
			parsed.Likes = int64(n)
		case FieldCreatedAt:
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					parsed.CreatedAt = t
					continue
				}
			}
			// Unparseable timestamps are kept verbatim.
			parsed.Attributes[k] = v
		default:
			parsed.Attributes[k] = v
		}
	}

	*l = parsed
	return nil
}
