package domain

import "context"

// ListingRepository persists listings. Update is conditional on the Version the
// caller read: it fails with ErrConflict when the stored version moved on and
// bumps the version on success.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByFilter(ctx context.Context, filter Filter) ([]*Listing, int64, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, favorite *Favorite) error
	Remove(ctx context.Context, userID, listingID string) error
	FindByUserID(ctx context.Context, userID string) ([]*Favorite, error)
	DeleteByListingID(ctx context.Context, listingID string) (int64, error)
}

// ContentStore keeps uploaded image bytes under generated keys.
type ContentStore interface {
	// Put stores data and returns a fresh, collision-free key.
	Put(ctx context.Context, data []byte, originalFilename string) (string, error)
	// Delete removes the blob. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URLFor(key string) string
}

// ListingCache is a read-through cache. GetListing returns (nil, nil) on a miss.
// DeleteListing drops the entry and fences the id at version: a later
// SetListing carrying an older Version is silently skipped.
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	SetListing(ctx context.Context, listing *Listing) error
	DeleteListing(ctx context.Context, id string, version int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type ListingNotifier interface {
	NotifyListingCreated(ctx context.Context, recipient string, listing *Listing) error
}
