package repository

import (
	"context"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
)

type ListingRepository interface {
	ListAll(ctx context.Context) ([]*entity.Listing, error)
	ListByAvailability(ctx context.Context, status string, limit int64) ([]*entity.Listing, error)
	ListByOwner(ctx context.Context, email string, newestFirst bool) ([]*entity.Listing, error)
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	Create(ctx context.Context, listing *entity.Listing) (string, error)
	Replace(ctx context.Context, id string, fields entity.ListingUpdate) (*entity.UpdateResult, error)
	DeleteByID(ctx context.Context, id string) (*entity.DeleteResult, error)
	// IncrementLikes atomically adds delta to the counter and returns the new value.
	IncrementLikes(ctx context.Context, id string, delta int64) (int64, error)
	SetLikes(ctx context.Context, id string, likes int64) (*entity.UpdateResult, error)
	// SwapLikes stores likes only while the counter still equals expected.
	// MatchedCount is 0 when the counter moved or the listing is gone.
	SwapLikes(ctx context.Context, id string, expected, likes int64) (*entity.UpdateResult, error)
	Count(ctx context.Context) (int64, error)
}
