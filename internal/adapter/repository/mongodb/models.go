package mongodb

import (
	"fmt"
	"time"

	account "github.com/jrybusiness/stylerental-backend/internal/account/domain"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"owner_id"`
	OwnerUsername string             `bson:"owner_username,omitempty"`
	Name          string             `bson:"name"`
	Price         int64              `bson:"price"`
	Size          string             `bson:"size"`
	Occasion      string             `bson:"occasion"`
	Gender        string             `bson:"gender"`
	Shop          string             `bson:"shop"`
	Phone         string             `bson:"phone"`
	Address       string             `bson:"address"`
	Description   string             `bson:"description"`
	Images        []string           `bson:"images"`
	Version       int64              `bson:"version"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type favoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ListingID string             `bson:"listing_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid object id %q: %w", id, err)
	}
	return oid, nil
}

// toListingDocument leaves the ID nil for new listings so the repository can assign one.
func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	oid, err := parseObjectID(l.ID)
	if err != nil {
		return nil, err
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return &listingDocument{
		ID:            oid,
		OwnerID:       l.OwnerID,
		OwnerUsername: l.OwnerUsername,
		Name:          l.Name,
		Price:         l.Price,
		Size:          l.Size,
		Occasion:      l.Occasion,
		Gender:        l.Gender,
		Shop:          l.Shop,
		Phone:         l.Phone,
		Address:       l.Address,
		Description:   l.Description,
		Images:        images,
		Version:       l.Version,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Listing{
		ID:            d.ID.Hex(),
		OwnerID:       d.OwnerID,
		OwnerUsername: d.OwnerUsername,
		Name:          d.Name,
		Price:         d.Price,
		Size:          d.Size,
		Occasion:      d.Occasion,
		Gender:        d.Gender,
		Shop:          d.Shop,
		Phone:         d.Phone,
		Address:       d.Address,
		Description:   d.Description,
		Images:        images,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainListing(d))
	}
	return out
}

func toDomainFavorite(d *favoriteDocument) *domain.Favorite {
	return &domain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		CreatedAt: d.CreatedAt,
	}
}

func toDomainFavorites(docs []*favoriteDocument) []*domain.Favorite {
	out := make([]*domain.Favorite, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainFavorite(d))
	}
	return out
}

func toDomainUser(d *userDocument) *account.User {
	// Accounts written before the role rename still carry "seller"/"buyer".
	role, ok := domain.ParseRole(d.Role)
	if !ok {
		role = domain.RoleBrowser
	}
	return &account.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		Role:         role,
		CreatedAt:    d.CreatedAt,
	}
}
