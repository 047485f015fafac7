package domain

import "time"

const (
	SubjectListingCreated = "listing.created"
	SubjectListingUpdated = "listing.updated"
	SubjectListingDeleted = "listing.deleted"
	SubjectImageOrphaned  = "listing.image.orphaned"
)

type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	OwnerID    string    `json:"owner_id"`
	Images     []string  `json:"images,omitempty"`
	Purged     []string  `json:"purged,omitempty"`
	Version    int64     `json:"version,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ImageOrphanedEvent reports a blob that is no longer referenced but could not be removed.
type ImageOrphanedEvent struct {
	ListingID  string    `json:"listing_id"`
	Key        string    `json:"key"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
