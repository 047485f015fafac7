package rest

import (
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/listing/usecase"
)

type listingResponse struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Seller      sellerResponse `json:"seller"`
	Name        string         `json:"name"`
	Price       int64          `json:"price"`
	Size        string         `json:"size"`
	Occasion    string         `json:"occasion"`
	Gender      string         `json:"gender"`
	Shop        string         `json:"shop"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	Description string         `json:"description"`
	Images      []string       `json:"images"`
	ImageURLs   []string       `json:"image_urls"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// sellerResponse describes the owner. Only listers can own listings.
type sellerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

type searchResponse struct {
	Total   int64              `json:"total"`
	Clothes []*listingResponse `json:"clothes"`
	Page    int64              `json:"page"`
	Limit   int64              `json:"limit"`
}

type auditResponse struct {
	ListingID string   `json:"listing_id"`
	Missing   []string `json:"missing"`
}

type favoriteResponse struct {
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toListingResponse(l *domain.Listing, urlFor func(string) string) *listingResponse {
	urls := make([]string, 0, len(l.Images))
	for _, key := range l.Images {
		urls = append(urls, urlFor(key))
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return &listingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Seller:      sellerResponse{ID: l.OwnerID, Username: l.OwnerUsername, Role: string(domain.RoleLister)},
		Name:        l.Name,
		Price:       l.Price,
		Size:        l.Size,
		Occasion:    l.Occasion,
		Gender:      l.Gender,
		Shop:        l.Shop,
		Phone:       l.Phone,
		Address:     l.Address,
		Description: l.Description,
		Images:      images,
		ImageURLs:   urls,
		Version:     l.Version,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toSearchResponse(res *usecase.SearchResult, urlFor func(string) string) *searchResponse {
	clothes := make([]*listingResponse, 0, len(res.Items))
	for _, l := range res.Items {
		clothes = append(clothes, toListingResponse(l, urlFor))
	}
	return &searchResponse{Total: res.Total, Clothes: clothes, Page: res.Page, Limit: res.Limit}
}
