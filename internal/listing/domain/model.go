package domain

import (
	"strings"
	"time"
)

// Role is the capability of an account. Only listers may mutate listings.
type Role string

const (
	RoleBrowser Role = "browser"
	RoleLister  Role = "lister"
)

// ParseRole maps the role names used by older clients onto the two variants.
// "seller" was the lister name, "user" and "buyer" were browser names.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lister", "seller":
		return RoleLister, true
	case "browser", "user", "buyer":
		return RoleBrowser, true
	default:
		return "", false
	}
}

func (r Role) CanList() bool { return r == RoleLister }

// Caller is the already verified identity of whoever invokes a listing operation.
type Caller struct {
	ID       string
	Username string
	Role     Role
}

type Listing struct {
	ID            string
	OwnerID       string
	OwnerUsername string
	Name          string
	Price         int64
	Size          string
	Occasion      string
	Gender        string
	Shop          string
	Phone         string
	Address       string
	Description   string
	Images        []string // content store keys, upload order
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a copy that shares no slices with l.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Images = append([]string(nil), l.Images...)
	return &c
}

// ListingInput carries the raw create attributes as they arrive from the client.
// Price stays a string so that validation can report malformed values.
type ListingInput struct {
	Name        string
	Price       string
	Size        string
	Occasion    string
	Gender      string
	Shop        string
	Phone       string
	Address     string
	Description string
}

// Optional distinguishes an omitted field from a provided one.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Set: true} }

// Get returns the wrapped value when set, fallback otherwise.
func (o Optional[T]) Get(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// ListingPatch is a partial update. Omitted fields keep their current value.
type ListingPatch struct {
	Name         Optional[string]
	Price        Optional[string]
	Size         Optional[string]
	Occasion     Optional[string]
	Gender       Optional[string]
	Shop         Optional[string]
	Phone        Optional[string]
	Address      Optional[string]
	Description  Optional[string]
	DeleteImages []string
}

// Upload is one file received with a create or update request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Favorite struct {
	ID        string
	UserID    string
	ListingID string
	CreatedAt time.Time
}

// Filter drives catalog search. Zero values mean "no constraint".
type Filter struct {
	Query    string
	Occasion string
	Gender   string
	OwnerID  string
	Page     int64
	Limit    int64
}

// Occasions and Genders are the option lists offered to clients.
var (
	Occasions = []string{"約會", "面試", "運動", "放鬆", "逛街", "cosplay"}
	Genders   = []string{"男士", "女士", "中性"}
)
