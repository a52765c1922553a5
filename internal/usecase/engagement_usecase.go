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
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// EngagementUseCase keeps the like ledger and the denormalized likes counter
// on each listing in step. The ledger is authoritative; the counter is only
// ever incremented after a ledger insert succeeded, so a failure between the
// two leaves an undercount that ReconcileLikes repairs.
type EngagementUseCase struct {
	listings  repository.ListingRepository
	likes     repository.LikeRepository
	cache     *listingCache
	publisher EventPublisher
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
}

func NewEngagementUseCase(
	lr repository.ListingRepository,
	kr repository.LikeRepository,
	cr cache.CacheRepository,
	cacheOpts CacheOptions,
	pub EventPublisher,
	m *metrics.MetricsManager,
	log *logger.Logger,
) *EngagementUseCase {
	l := log.Named("EngagementUseCase")
	return &EngagementUseCase{
		listings:  lr,
		likes:     kr,
		cache:     newListingCache(cr, cacheOpts, l),
		publisher: pub,
		metrics:   m,
		logger:    l,
	}
}

// LikeTracked records that likerEmail likes listingID and bumps the counter
// once per distinct liker. Repeating the call is a no-op that still reports
// Liked. Owners cannot like their own listing.
func (uc *EngagementUseCase) LikeTracked(ctx context.Context, listingID, likerEmail string) (*entity.LikeOutcome, error) {
	ctx, span := tracer.Start(ctx, "EngagementUseCase.LikeTracked")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", listingID))

	outcome, label, err := uc.likeTracked(ctx, listingID, likerEmail)
	uc.metrics.ObserveLike(label)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, label)
	}
	span.SetAttributes(attribute.String("like.outcome", label))
	return outcome, err
}

func (uc *EngagementUseCase) likeTracked(ctx context.Context, listingID, likerEmail string) (*entity.LikeOutcome, string, error) {
	if likerEmail == "" {
		return nil, metrics.LikeOutcomeError, fmt.Errorf("%w: userEmail is required", ErrInvalidInput)
	}

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, metrics.LikeOutcomeError, fmt.Errorf("EngagementUseCase.LikeTracked: %w", err)
	}

	if listing.OwnedBy(likerEmail) {
		return nil, metrics.LikeOutcomeSelfLike, ErrSelfLikeNotAllowed
	}

	alreadyLiked := &entity.LikeOutcome{Liked: true, AlreadyLiked: true, Likes: listing.Likes}

	exists, err := uc.likes.Exists(ctx, listingID, likerEmail)
	if err != nil {
		return nil, metrics.LikeOutcomeError, fmt.Errorf("EngagementUseCase.LikeTracked: %w", err)
	}
	if exists {
		return alreadyLiked, metrics.LikeOutcomeAlreadyLiked, nil
	}

	err = uc.likes.Record(ctx, &entity.Like{
		ListingID: listingID,
		UserEmail: likerEmail,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// A concurrent request for the same pair won the insert.
			return alreadyLiked, metrics.LikeOutcomeAlreadyLiked, nil
		}
		return nil, metrics.LikeOutcomeError, fmt.Errorf("EngagementUseCase.LikeTracked: %w", err)
	}

	likes, err := uc.listings.IncrementLikes(ctx, listingID, 1)
	if err != nil {
		uc.logger.Error("like recorded but counter not incremented, listing is undercounted",
			zap.String("listing_id", listingID),
			zap.String("user_email", likerEmail),
			zap.Error(err))
		return nil, metrics.LikeOutcomeError, fmt.Errorf("EngagementUseCase.LikeTracked: increment: %w", err)
	}

	uc.cache.invalidate(ctx, listingID)
	publish(ctx, uc.publisher, uc.logger, SubjectListingLiked, LikeEvent{
		ListingID: listingID,
		UserEmail: likerEmail,
		Likes:     likes,
	})

	return &entity.LikeOutcome{
		Liked: true,
		Likes: likes,
		Result: &entity.UpdateResult{
			Acknowledged:  true,
			MatchedCount:  1,
			ModifiedCount: 1,
		},
	}, metrics.LikeOutcomeApplied, nil
}

// Wait blocks until scheduled cache invalidations are done.
func (uc *EngagementUseCase) Wait() {
	uc.cache.wait()
}

// HasLiked reports whether the ledger holds the (listingID, email) pair.
func (uc *EngagementUseCase) HasLiked(ctx context.Context, listingID, email string) (bool, error) {
	ctx, span := tracer.Start(ctx, "EngagementUseCase.HasLiked")
	defer span.End()

	liked, err := uc.likes.Exists(ctx, listingID, email)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("EngagementUseCase.HasLiked: %w", err)
	}
	return liked, nil
}

// reconcileAttempts bounds how often ReconcileLikes re-reads a counter that
// kept moving under it.
const reconcileAttempts = 3

// ReconcileLikes recomputes the counter of listingID from the ledger and
// stores it. The write only applies while the counter still holds the value
// read alongside the ledger count, so a like landing in between is never
// overwritten. It returns the stored value.
func (uc *EngagementUseCase) ReconcileLikes(ctx context.Context, listingID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "EngagementUseCase.ReconcileLikes")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", listingID))

	for attempt := 1; attempt <= reconcileAttempts; attempt++ {
		count, done, err := uc.reconcileOnce(ctx, listingID)
		if err != nil {
			span.RecordError(err)
			return 0, fmt.Errorf("EngagementUseCase.ReconcileLikes: %w", err)
		}
		if done {
			span.SetAttributes(attribute.Int("reconcile.attempts", attempt))
			return count, nil
		}
		uc.logger.Debug("likes counter moved during reconcile, retrying",
			zap.String("listing_id", listingID), zap.Int("attempt", attempt))
	}

	span.SetStatus(codes.Error, "conflict")
	return 0, fmt.Errorf("EngagementUseCase.ReconcileLikes: %w", ErrReconcileConflict)
}

// reconcileOnce reports done=false when the counter changed between the read
// and the conditional write.
func (uc *EngagementUseCase) reconcileOnce(ctx context.Context, listingID string) (int64, bool, error) {
	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		return 0, false, err
	}

	count, err := uc.likes.CountByListing(ctx, listingID)
	if err != nil {
		return 0, false, err
	}

	if count == listing.Likes {
		return count, true, nil
	}

	res, err := uc.listings.SwapLikes(ctx, listingID, listing.Likes, count)
	if err != nil {
		return 0, false, err
	}
	if res.MatchedCount == 0 {
		return 0, false, nil
	}

	uc.logger.Info("likes counter reconciled",
		zap.String("listing_id", listingID),
		zap.Int64("previous", listing.Likes),
		zap.Int64("reconciled", count))

	uc.cache.invalidate(ctx, listingID)
	publish(ctx, uc.publisher, uc.logger, SubjectListingUpdated, ListingEvent{ListingID: listingID, Email: listing.Email})
	return count, true, nil
}
