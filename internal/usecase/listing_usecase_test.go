package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/platform/metrics"
	"github.com/Rahima097/find-Roommate-server/internal/port/cache"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newListingWithMocks() (*ListingUseCase, *MockListingRepository, *MockCacheRepository, *MockEventPublisher) {
	lr := new(MockListingRepository)
	cr := new(MockCacheRepository)
	pub := new(MockEventPublisher)
	uc := NewListingUseCase(lr, cr, pub, nil, ListingOptions{Cache: CacheOptions{TTL: time.Minute}}, logger.NewNop())
	return uc, lr, cr, pub
}

func TestListAvailable_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int64
		want  int64
	}{
		{"default when zero", 0, DefaultAvailableLimit},
		{"default when negative", -3, DefaultAvailableLimit},
		{"explicit", 2, 2},
		{"capped", 5000, MaxAvailableLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, lr, _, _ := newListingWithMocks()
			lr.On("ListByAvailability", mock.Anything, entity.AvailabilityAvailable, tt.want).Return([]*entity.Listing{}, nil).Once()

			_, err := uc.ListAvailable(context.Background(), tt.limit)

			require.NoError(t, err)
			lr.AssertExpectations(t)
		})
	}
}

func TestListAvailable_FilterCorrectness(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()
	for _, avail := range []string{"available", "unavailable", "available"} {
		_, err := s.Create(ctx, &entity.Listing{Email: "a@x.com", Availability: avail})
		require.NoError(t, err)
	}
	uc := NewListingUseCase(s, nil, nil, nil, ListingOptions{}, logger.NewNop())

	got, err := uc.ListAvailable(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsAvailable())

	got, err = uc.ListAvailable(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListByOwner(t *testing.T) {
	uc, lr, _, _ := newListingWithMocks()
	owned := []*entity.Listing{{ID: listingID, Email: "a@x.com"}}

	lr.On("ListByOwner", mock.Anything, "a@x.com", false).Return(owned, nil).Once()
	lr.On("ListByOwner", mock.Anything, "a@x.com", true).Return(owned, nil).Once()

	got, err := uc.ListByOwner(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, owned, got)

	got, err = uc.ListByOwnerNewestFirst(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, owned, got)

	_, err = uc.ListByOwner(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	lr.AssertExpectations(t)
}

func TestGetListing_CacheHit(t *testing.T) {
	uc, lr, cr, _ := newListingWithMocks()

	cached, err := json.Marshal(cachedListing{ID: listingID, Listing: entity.Listing{Email: "a@x.com", Likes: 2}})
	require.NoError(t, err)
	cr.On("Get", mock.Anything, listingCacheKey(listingID)).Return(cached, nil).Once()

	got, err := uc.GetListing(context.Background(), listingID)

	require.NoError(t, err)
	assert.Equal(t, listingID, got.ID)
	assert.Equal(t, int64(2), got.Likes)
	lr.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetListing_CacheMissFillsCache(t *testing.T) {
	uc, lr, cr, _ := newListingWithMocks()
	listing := &entity.Listing{ID: listingID, Email: "a@x.com"}

	cr.On("Get", mock.Anything, listingCacheKey(listingID)).Return(nil, cache.ErrNotFound).Once()
	lr.On("GetByID", mock.Anything, listingID).Return(listing, nil).Once()
	cr.On("Set", mock.Anything, listingCacheKey(listingID), mock.Anything, time.Minute).Return(nil).Once()

	got, err := uc.GetListing(context.Background(), listingID)

	require.NoError(t, err)
	assert.Equal(t, listing, got)
	cr.AssertExpectations(t)
}

func TestGetListing_CorruptCacheEntryIsDropped(t *testing.T) {
	uc, lr, cr, _ := newListingWithMocks()
	listing := &entity.Listing{ID: listingID, Email: "a@x.com"}

	cr.On("Get", mock.Anything, listingCacheKey(listingID)).Return([]byte("{not json"), nil).Once()
	cr.On("Delete", mock.Anything, listingCacheKey(listingID)).Return(nil).Once()
	lr.On("GetByID", mock.Anything, listingID).Return(listing, nil).Once()
	cr.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	got, err := uc.GetListing(context.Background(), listingID)

	require.NoError(t, err)
	assert.Equal(t, listing, got)
	cr.AssertExpectations(t)
}

func TestGetListing_AbsentAndMalformed(t *testing.T) {
	uc, lr, cr, _ := newListingWithMocks()

	cr.On("Get", mock.Anything, mock.Anything).Return(nil, cache.ErrNotFound)
	lr.On("GetByID", mock.Anything, listingID).Return(nil, repository.ErrNotFound).Once()
	lr.On("GetByID", mock.Anything, "bad").Return(nil, repository.ErrInvalidIdentifier).Once()

	got, err := uc.GetListing(context.Background(), listingID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = uc.GetListing(context.Background(), "bad")
	assert.ErrorIs(t, err, repository.ErrInvalidIdentifier)
}

func TestCreateListing(t *testing.T) {
	lr := new(MockListingRepository)
	pub := new(MockEventPublisher)
	m := metrics.NewMetricsManager("listing_test")
	uc := NewListingUseCase(lr, nil, pub, m, ListingOptions{}, logger.NewNop())
	fixed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return fixed }

	in := &entity.Listing{Email: "a@x.com", Likes: 9, Attributes: map[string]interface{}{"rent": 300.0}}
	lr.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return l.Likes == 0 && l.CreatedAt.Equal(fixed)
	})).Return(listingID, nil).Once()
	pub.On("Publish", mock.Anything, SubjectListingCreated, ListingEvent{ListingID: listingID, Email: "a@x.com"}).Return(nil).Once()

	res, err := uc.CreateListing(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, &entity.InsertResult{Acknowledged: true, InsertedID: listingID}, res)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingsCreatedTotal))
	lr.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateListing_KeepsClientCreatedAt(t *testing.T) {
	uc, lr, _, pub := newListingWithMocks()
	sent := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	lr.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.Listing) bool {
		return l.CreatedAt.Equal(sent)
	})).Return(listingID, nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := uc.CreateListing(context.Background(), &entity.Listing{CreatedAt: sent})
	require.NoError(t, err)

	_, err = uc.CreateListing(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	lr.AssertExpectations(t)
}

func TestReplaceListing(t *testing.T) {
	uc, lr, cr, pub := newListingWithMocks()
	fields := entity.ListingUpdate{"rent": 500.0}

	lr.On("Replace", mock.Anything, listingID, fields).Return(&entity.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil).Once()
	cr.On("Delete", mock.Anything, listingCacheKey(listingID)).Return(nil).Once()
	pub.On("Publish", mock.Anything, SubjectListingUpdated, ListingEvent{ListingID: listingID}).Return(nil).Once()

	res, err := uc.ReplaceListing(context.Background(), listingID, fields)

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ModifiedCount)
	lr.AssertExpectations(t)
	cr.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestReplaceListing_RepeatsInvalidation(t *testing.T) {
	lr := new(MockListingRepository)
	cr := new(MockCacheRepository)
	uc := NewListingUseCase(lr, cr, nil, nil, ListingOptions{Cache: CacheOptions{InvalidateDelay: 10 * time.Millisecond}}, logger.NewNop())

	lr.On("Replace", mock.Anything, listingID, mock.Anything).Return(&entity.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil).Once()
	cr.On("Delete", mock.Anything, listingCacheKey(listingID)).Return(nil).Twice()

	_, err := uc.ReplaceListing(context.Background(), listingID, entity.ListingUpdate{"rent": 1.0})
	require.NoError(t, err)

	uc.Wait()
	cr.AssertExpectations(t)
}

func TestGetListing_SlowReadIsNotCached(t *testing.T) {
	lr := new(MockListingRepository)
	cr := new(MockCacheRepository)
	uc := NewListingUseCase(lr, cr, nil, nil, ListingOptions{Cache: CacheOptions{InvalidateDelay: 10 * time.Millisecond}}, logger.NewNop())

	cr.On("Get", mock.Anything, listingCacheKey(listingID)).Return(nil, cache.ErrNotFound).Once()
	lr.On("GetByID", mock.Anything, listingID).Return(&entity.Listing{ID: listingID}, nil).After(30 * time.Millisecond).Once()

	got, err := uc.GetListing(context.Background(), listingID)

	require.NoError(t, err)
	assert.Equal(t, listingID, got.ID)
	cr.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetListing_StaleFillAfterWriteIsEvicted(t *testing.T) {
	lr := new(MockListingRepository)
	c := newMemoryCache()
	uc := NewListingUseCase(lr, c, nil, nil, ListingOptions{Cache: CacheOptions{InvalidateDelay: 200 * time.Millisecond}}, logger.NewNop())

	release := make(chan time.Time)
	lr.On("GetByID", mock.Anything, listingID).Return(&entity.Listing{ID: listingID, Likes: 0}, nil).WaitUntil(release).Once()
	lr.On("SetLikes", mock.Anything, listingID, int64(1)).Return(&entity.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil).Once()

	// The read observes the old counter, the write and its invalidation
	// complete, then the read fills the cache.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_, err := uc.GetListing(context.Background(), listingID)
		assert.NoError(t, err)
	}()

	_, err := uc.SetLikes(context.Background(), listingID, 1)
	require.NoError(t, err)
	close(release)
	<-readDone

	uc.Wait()
	assert.False(t, c.has(listingCacheKey(listingID)), "stale listing must not outlive the delayed invalidation")
}

func TestDeleteListing_AbsentIsNoop(t *testing.T) {
	uc, lr, cr, pub := newListingWithMocks()

	lr.On("DeleteByID", mock.Anything, listingID).Return(&entity.DeleteResult{Acknowledged: true}, nil).Once()
	cr.On("Delete", mock.Anything, mock.Anything).Return(nil)

	res, err := uc.DeleteListing(context.Background(), listingID)

	require.NoError(t, err)
	assert.Zero(t, res.DeletedCount)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetLikes(t *testing.T) {
	uc, lr, cr, pub := newListingWithMocks()

	lr.On("SetLikes", mock.Anything, listingID, int64(7)).Return(&entity.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil).Once()
	cr.On("Delete", mock.Anything, listingCacheKey(listingID)).Return(nil)
	pub.On("Publish", mock.Anything, SubjectListingUpdated, mock.Anything).Return(nil)

	res, err := uc.SetLikes(context.Background(), listingID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)

	_, err = uc.SetLikes(context.Background(), listingID, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	lr.AssertExpectations(t)
}

func TestCountListings(t *testing.T) {
	uc, lr, _, _ := newListingWithMocks()

	lr.On("Count", mock.Anything).Return(int64(12), nil).Once()
	n, err := uc.CountListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	lr.On("Count", mock.Anything).Return(int64(0), repository.ErrStoreUnavailable).Once()
	_, err = uc.CountListings(context.Background())
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestListingRoundTrip(t *testing.T) {
	s := newMemoryStore()
	uc := NewListingUseCase(s, nil, nil, nil, ListingOptions{}, logger.NewNop())
	ctx := context.Background()

	res, err := uc.CreateListing(ctx, &entity.Listing{
		Email:        "a@x.com",
		Availability: entity.AvailabilityAvailable,
		Attributes:   map[string]interface{}{"location": "Dhaka"},
	})
	require.NoError(t, err)

	got, err := uc.GetListing(ctx, res.InsertedID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.InsertedID, got.ID)
	assert.Equal(t, "Dhaka", got.Attributes["location"])

	_, err = uc.ReplaceListing(ctx, res.InsertedID, entity.ListingUpdate{"location": "Chittagong"})
	require.NoError(t, err)
	got, err = uc.GetListing(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "Chittagong", got.Attributes["location"])

	_, err = uc.DeleteListing(ctx, res.InsertedID)
	require.NoError(t, err)
	got, err = uc.GetListing(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
