package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/platform/metrics"
	"github.com/Rahima097/find-Roommate-server/internal/port/cache"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultAvailableLimit int64 = 6
	MaxAvailableLimit     int64 = 100
)

type ListingOptions struct {
	DefaultLimit int64
	MaxLimit     int64
	Cache        CacheOptions
}

type ListingUseCase struct {
	listings  repository.ListingRepository
	cache     *listingCache
	publisher EventPublisher
	metrics   *metrics.MetricsManager
	opts      ListingOptions
	logger    *logger.Logger
	now       func() time.Time
}

func NewListingUseCase(
	lr repository.ListingRepository,
	cr cache.CacheRepository,
	pub EventPublisher,
	m *metrics.MetricsManager,
	opts ListingOptions,
	log *logger.Logger,
) *ListingUseCase {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultAvailableLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxAvailableLimit
	}
	l := log.Named("ListingUseCase")
	return &ListingUseCase{
		listings:  lr,
		cache:     newListingCache(cr, opts.Cache, l),
		publisher: pub,
		metrics:   m,
		opts:      opts,
		logger:    l,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ListingUseCase) ListAll(ctx context.Context) ([]*entity.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.ListAll")
	defer span.End()

	listings, err := uc.listings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListingUseCase.ListAll: %w", err)
	}
	return listings, nil
}

// ListAvailable returns up to limit listings marked available. A non-positive
// limit means the default; limits above the maximum are capped.
func (uc *ListingUseCase) ListAvailable(ctx context.Context, limit int64) ([]*entity.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.ListAvailable")
	defer span.End()

	if limit <= 0 {
		limit = uc.opts.DefaultLimit
	}
	if limit > uc.opts.MaxLimit {
		limit = uc.opts.MaxLimit
	}
	span.SetAttributes(attribute.Int64("limit", limit))

	listings, err := uc.listings.ListByAvailability(ctx, entity.AvailabilityAvailable, limit)
	if err != nil {
		return nil, fmt.Errorf("ListingUseCase.ListAvailable: %w", err)
	}
	return listings, nil
}

func (uc *ListingUseCase) ListByOwner(ctx context.Context, email string) ([]*entity.Listing, error) {
	return uc.listByOwner(ctx, email, false)
}

func (uc *ListingUseCase) ListByOwnerNewestFirst(ctx context.Context, email string) ([]*entity.Listing, error) {
	return uc.listByOwner(ctx, email, true)
}

func (uc *ListingUseCase) listByOwner(ctx context.Context, email string, newestFirst bool) ([]*entity.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.ListByOwner")
	defer span.End()

	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	listings, err := uc.listings.ListByOwner(ctx, email, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("ListingUseCase.ListByOwner: %w", err)
	}
	return listings, nil
}

// GetListing returns the listing or nil when no listing has that id.
func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.GetListing")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", id))

	if l, ok := uc.cache.get(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return l, nil
	}

	readStart := time.Now()
	l, err := uc.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ListingUseCase.GetListing: %w", err)
	}

	uc.cache.set(ctx, l, readStart)
	return l, nil
}

// CreateListing stores a new listing. The counter always starts at zero, it
// is only ever moved by the like paths.
func (uc *ListingUseCase) CreateListing(ctx context.Context, listing *entity.Listing) (*entity.InsertResult, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.CreateListing")
	defer span.End()

	if listing == nil {
		return nil, fmt.Errorf("%w: listing body is required", ErrInvalidInput)
	}
	listing.Likes = 0
	if listing.CreatedAt.IsZero() {
		if _, raw := listing.Attributes[entity.FieldCreatedAt]; !raw {
			listing.CreatedAt = uc.now()
		}
	}

	id, err := uc.listings.Create(ctx, listing)
	if err != nil {
		uc.logger.Error("failed to create listing", zap.String("email", listing.Email), zap.Error(err))
		return nil, fmt.Errorf("ListingUseCase.CreateListing: %w", err)
	}

	uc.metrics.ObserveListingCreated()
	uc.logger.Info("listing created", zap.String("listing_id", id), zap.String("email", listing.Email))
	publish(ctx, uc.publisher, uc.logger, SubjectListingCreated, ListingEvent{ListingID: id, Email: listing.Email})

	return &entity.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (uc *ListingUseCase) ReplaceListing(ctx context.Context, id string, fields entity.ListingUpdate) (*entity.UpdateResult, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.ReplaceListing")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", id))

	res, err := uc.listings.Replace(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("ListingUseCase.ReplaceListing: %w", err)
	}

	uc.cache.invalidate(ctx, id)
	if res.MatchedCount > 0 {
		publish(ctx, uc.publisher, uc.logger, SubjectListingUpdated, ListingEvent{ListingID: id})
	}
	return res, nil
}

func (uc *ListingUseCase) DeleteListing(ctx context.Context, id string) (*entity.DeleteResult, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.DeleteListing")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", id))

	res, err := uc.listings.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ListingUseCase.DeleteListing: %w", err)
	}

	uc.cache.invalidate(ctx, id)
	if res.DeletedCount > 0 {
		uc.logger.Info("listing deleted", zap.String("listing_id", id))
		publish(ctx, uc.publisher, uc.logger, SubjectListingDeleted, ListingEvent{ListingID: id})
	}
	return res, nil
}

// SetLikes overwrites the counter without consulting the ledger. It backs
// the legacy PATCH /roommates/{id}/like endpoint.
func (uc *ListingUseCase) SetLikes(ctx context.Context, id string, likes int64) (*entity.UpdateResult, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.SetLikes")
	defer span.End()

	if likes < 0 {
		return nil, fmt.Errorf("%w: likes must not be negative", ErrInvalidInput)
	}

	res, err := uc.listings.SetLikes(ctx, id, likes)
	if err != nil {
		return nil, fmt.Errorf("ListingUseCase.SetLikes: %w", err)
	}

	uc.cache.invalidate(ctx, id)
	if res.MatchedCount > 0 {
		publish(ctx, uc.publisher, uc.logger, SubjectListingUpdated, ListingEvent{ListingID: id})
	}
	return res, nil
}

// Wait blocks until scheduled cache invalidations are done.
func (uc *ListingUseCase) Wait() {
	uc.cache.wait()
}

func (uc *ListingUseCase) CountListings(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ListingUseCase.CountListings")
	defer span.End()

	n, err := uc.listings.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ListingUseCase.CountListings: %w", err)
	}
	return n, nil
}
