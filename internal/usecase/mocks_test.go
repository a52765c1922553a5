package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/port/cache"
	"github.com/Rahima097/find-Roommate-server/internal/port/repository"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) ListAll(ctx context.Context) ([]*entity.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}
func (m *MockListingRepository) ListByAvailability(ctx context.Context, status string, limit int64) ([]*entity.Listing, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}
func (m *MockListingRepository) ListByOwner(ctx context.Context, email string, newestFirst bool) ([]*entity.Listing, error) {
	args := m.Called(ctx, email, newestFirst)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}
func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}
func (m *MockListingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	args := m.Called(ctx, listing)
	return args.String(0), args.Error(1)
}
func (m *MockListingRepository) Replace(ctx context.Context, id string, fields entity.ListingUpdate) (*entity.UpdateResult, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UpdateResult), args.Error(1)
}
func (m *MockListingRepository) DeleteByID(ctx context.Context, id string) (*entity.DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DeleteResult), args.Error(1)
}
func (m *MockListingRepository) IncrementLikes(ctx context.Context, id string, delta int64) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockListingRepository) SetLikes(ctx context.Context, id string, likes int64) (*entity.UpdateResult, error) {
	args := m.Called(ctx, id, likes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UpdateResult), args.Error(1)
}
func (m *MockListingRepository) SwapLikes(ctx context.Context, id string, expected, likes int64) (*entity.UpdateResult, error) {
	args := m.Called(ctx, id, expected, likes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UpdateResult), args.Error(1)
}
func (m *MockListingRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockLikeRepository struct{ mock.Mock }

func (m *MockLikeRepository) Exists(ctx context.Context, listingID, userEmail string) (bool, error) {
	args := m.Called(ctx, listingID, userEmail)
	return args.Bool(0), args.Error(1)
}
func (m *MockLikeRepository) Record(ctx context.Context, like *entity.Like) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}
func (m *MockLikeRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

type MockContactRepository struct{ mock.Mock }

func (m *MockContactRepository) Create(ctx context.Context, msg *entity.ContactMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	args := m.Called(ctx, subject, payload)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendEmail(to []string, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

// memoryCache is a map-backed CacheRepository. TTLs are ignored.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// memoryStore is an in-memory listing repository and like ledger. The ledger
// enforces pair uniqueness the way the unique index does.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int
	listings map[string]*entity.Listing
	ledger   map[[2]string]entity.Like

	failIncrement error
	// beforeSwap runs once, unlocked, at the start of the next SwapLikes.
	beforeSwap func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		listings: make(map[string]*entity.Listing),
		ledger:   make(map[[2]string]entity.Like),
	}
}

func memoryID(n int) string {
	const hex = "0123456789abcdef"
	b := []byte("000000000000000000000000")
	for i := len(b) - 1; n > 0 && i >= 0; i-- {
		b[i] = hex[n%16]
		n /= 16
	}
	return string(b)
}

func (s *memoryStore) checkID(id string) error {
	if len(id) != 24 {
		return repository.ErrInvalidIdentifier
	}
	return nil
}

func (s *memoryStore) copyOf(l *entity.Listing) *entity.Listing {
	c := *l
	return &c
}

func (s *memoryStore) ListAll(context.Context) ([]*entity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, s.copyOf(l))
	}
	return out, nil
}

func (s *memoryStore) ListByAvailability(_ context.Context, status string, limit int64) ([]*entity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Listing, 0)
	for _, l := range s.listings {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if l.Availability == status {
			out = append(out, s.copyOf(l))
		}
	}
	return out, nil
}

func (s *memoryStore) ListByOwner(_ context.Context, email string, _ bool) ([]*entity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Listing, 0)
	for _, l := range s.listings {
		if l.Email == email {
			out = append(out, s.copyOf(l))
		}
	}
	return out, nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*entity.Listing, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.copyOf(l), nil
}

func (s *memoryStore) Create(_ context.Context, listing *entity.Listing) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	listing.ID = memoryID(s.nextID)
	s.listings[listing.ID] = s.copyOf(listing)
	return listing.ID, nil
}

func (s *memoryStore) Replace(_ context.Context, id string, fields entity.ListingUpdate) (*entity.UpdateResult, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return &entity.UpdateResult{Acknowledged: true}, nil
	}
	attrs := make(map[string]interface{}, len(l.Attributes))
	for k, v := range l.Attributes {
		attrs[k] = v
	}
	for k, v := range fields {
		switch k {
		case entity.FieldID, entity.FieldLikes:
		case entity.FieldEmail:
			l.Email, _ = v.(string)
		case entity.FieldAvailability:
			l.Availability, _ = v.(string)
		default:
			attrs[k] = v
		}
	}
	l.Attributes = attrs
	return &entity.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *memoryStore) DeleteByID(_ context.Context, id string) (*entity.DeleteResult, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return &entity.DeleteResult{Acknowledged: true}, nil
	}
	delete(s.listings, id)
	return &entity.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (s *memoryStore) IncrementLikes(_ context.Context, id string, delta int64) (int64, error) {
	if err := s.checkID(id); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIncrement != nil {
		return 0, s.failIncrement
	}
	l, ok := s.listings[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	l.Likes += delta
	return l.Likes, nil
}

func (s *memoryStore) SetLikes(_ context.Context, id string, likes int64) (*entity.UpdateResult, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return &entity.UpdateResult{Acknowledged: true}, nil
	}
	l.Likes = likes
	return &entity.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *memoryStore) SwapLikes(_ context.Context, id string, expected, likes int64) (*entity.UpdateResult, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeSwap != nil {
		hook := s.beforeSwap
		s.beforeSwap = nil
		s.mu.Unlock()
		hook()
		s.mu.Lock()
	}
	l, ok := s.listings[id]
	if !ok || l.Likes != expected {
		return &entity.UpdateResult{Acknowledged: true}, nil
	}
	l.Likes = likes
	return &entity.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *memoryStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.listings)), nil
}

func (s *memoryStore) Exists(_ context.Context, listingID, userEmail string) (bool, error) {
	if err := s.checkID(listingID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ledger[[2]string{listingID, userEmail}]
	return ok, nil
}

func (s *memoryStore) Record(_ context.Context, like *entity.Like) error {
	if err := s.checkID(like.ListingID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{like.ListingID, like.UserEmail}
	if _, ok := s.ledger[key]; ok {
		return repository.ErrAlreadyExists
	}
	s.ledger[key] = *like
	return nil
}

func (s *memoryStore) CountByListing(_ context.Context, listingID string) (int64, error) {
	if err := s.checkID(listingID); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.ledger {
		if key[0] == listingID {
			n++
		}
	}
	return n, nil
}
