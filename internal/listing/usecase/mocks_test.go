package usecase

import (
	"context"
	"sync"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Listing), args.Get(1).(int64), args.Error(2)
}

type MockFavoriteRepository struct{ mock.Mock }

func (m *MockFavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	args := m.Called(ctx, favorite)
	return args.Error(0)
}
func (m *MockFavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	args := m.Called(ctx, userID, listingID)
	return args.Error(0)
}
func (m *MockFavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Favorite), args.Error(1)
}
func (m *MockFavoriteRepository) DeleteByListingID(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

type MockContentStore struct{ mock.Mock }

func (m *MockContentStore) Put(ctx context.Context, data []byte, originalFilename string) (string, error) {
	args := m.Called(ctx, data, originalFilename)
	return args.String(0), args.Error(1)
}
func (m *MockContentStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *MockContentStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
func (m *MockContentStore) URLFor(key string) string {
	return "http://store.local/bucket/" + key
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingCache) DeleteListing(ctx context.Context, id string, version int64) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyListingCreated(ctx context.Context, recipient string, listing *domain.Listing) error {
	args := m.Called(ctx, recipient, listing)
	return args.Error(0)
}

type publishedEvent struct {
	Subject string
	Data    interface{}
}

// recordingPublisher keeps every published event for later assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Data: data})
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}

// fencingCache is an in-memory ListingCache that drops fills older than the
// last invalidation, the same contract the Redis cache keeps.
type fencingCache struct {
	mu       sync.Mutex
	entries  map[string]*domain.Listing
	fences   map[string]int64
	onDelete func(id string)
}

func newFencingCache() *fencingCache {
	return &fencingCache{entries: map[string]*domain.Listing{}, fences: map[string]int64{}}
}

func (c *fencingCache) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.entries[id]; ok {
		return l.Clone(), nil
	}
	return nil, nil
}

func (c *fencingCache) SetListing(_ context.Context, listing *domain.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if listing.Version < c.fences[listing.ID] {
		return nil
	}
	c.entries[listing.ID] = listing.Clone()
	return nil
}

func (c *fencingCache) DeleteListing(_ context.Context, id string, version int64) error {
	c.mu.Lock()
	if version > c.fences[id] {
		c.fences[id] = version
	}
	delete(c.entries, id)
	c.mu.Unlock()
	if c.onDelete != nil {
		c.onDelete(id)
	}
	return nil
}
