package usecase

import "github.com/jrybusiness/stylerental-backend/internal/listing/domain"

type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Authorize decides whether caller may update or delete listing.
// Only a lister that owns the listing is allowed.
func Authorize(caller domain.Caller, listing *domain.Listing) Decision {
	if !caller.Role.CanList() || listing == nil {
		return Denied
	}
	if caller.ID == "" || listing.OwnerID != caller.ID {
		return Denied
	}
	return Allowed
}

// AuthorizeCreate only checks the role since there is no owner yet.
func AuthorizeCreate(caller domain.Caller) Decision {
	if caller.ID == "" || !caller.Role.CanList() {
		return Denied
	}
	return Allowed
}
