package repository

import (
	"context"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
)

// LikeRepository is the ledger of who liked which listing. Record returns
// ErrAlreadyExists when the pair is already present.
type LikeRepository interface {
	Exists(ctx context.Context, listingID, userEmail string) (bool, error)
	Record(ctx context.Context, like *entity.Like) error
	CountByListing(ctx context.Context, listingID string) (int64, error)
}
