package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollectionName = "clothes"

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	collection := db.Collection(listingCollectionName)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "occasion", Value: 1}, {Key: "gender", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: newestFirst},
	}
	if err := ensureIndexes(collection, indexes); err != nil {
		log.Warn("ListingRepository: failed to ensure indexes", "collection", listingCollectionName, "error", err.Error())
	}
	return &ListingRepository{collection: collection, logger: log.Named("ListingRepository")}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Create: InsertOne failed", "owner_id", listing.OwnerID, "error", err.Error())
		return fmt.Errorf("insert listing: %w", err)
	}
	listing.ID = doc.ID.Hex()
	listing.Version = doc.Version
	return nil
}

// Update replaces the mutable fields only when the stored version still equals
// listing.Version, then advances listing.Version.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	oid, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return domain.ErrListingNotFound
	}
	images := listing.Images
	if images == nil {
		images = []string{}
	}

	filter := bson.M{"_id": oid, "version": listing.Version}
	update := bson.M{
		"$set": bson.M{
			"name":        listing.Name,
			"price":       listing.Price,
			"size":        listing.Size,
			"occasion":    listing.Occasion,
			"gender":      listing.Gender,
			"shop":        listing.Shop,
			"phone":       listing.Phone,
			"address":     listing.Address,
			"description": listing.Description,
			"images":      images,
			"updated_at":  listing.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Update: UpdateOne failed", "listing_id", listing.ID, "error", err.Error())
		return fmt.Errorf("update listing: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		if n == 0 {
			return domain.ErrListingNotFound
		}
		r.logger.Warn("Update: version mismatch", "listing_id", listing.ID, "expected_version", listing.Version)
		return domain.ErrConflict
	}
	listing.Version++
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrListingNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Delete: DeleteOne failed", "listing_id", id, "error", err.Error())
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("FindByID: FindOne failed", "listing_id", id, "error", err.Error())
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return toDomainListing(&doc), nil
}

// FindByFilter returns one page, newest first, and the total number of matches.
func (r *ListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, int64, error) {
	query := buildListingQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		r.logger.Error("FindByFilter: CountDocuments failed", "error", err.Error())
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 8
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error("FindByFilter: Find failed", "error", err.Error())
		return nil, 0, fmt.Errorf("find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}
	return toDomainListings(docs), total, nil
}

func buildListingQuery(filter domain.Filter) bson.M {
	query := bson.M{}
	if filter.Query != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
	}
	if filter.Occasion != "" {
		query["occasion"] = filter.Occasion
	}
	if filter.Gender != "" {
		query["gender"] = filter.Gender
	}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}
	return query
}

