package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const favoriteCollectionName = "favorites"

type FavoriteRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewFavoriteRepository(db *mongo.Database, log *logger.Logger) *FavoriteRepository {
	collection := db.Collection(favoriteCollectionName)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	}
	if err := ensureIndexes(collection, indexes); err != nil {
		log.Warn("FavoriteRepository: failed to ensure indexes", "collection", favoriteCollectionName, "error", err.Error())
	}
	return &FavoriteRepository{collection: collection, logger: log.Named("FavoriteRepository")}
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	if favorite.CreatedAt.IsZero() {
		favorite.CreatedAt = time.Now().UTC()
	}
	doc := &favoriteDocument{
		ID:        primitive.NewObjectID(),
		UserID:    favorite.UserID,
		ListingID: favorite.ListingID,
		CreatedAt: favorite.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateFavorite
		}
		r.logger.Error("Add: InsertOne failed", "user_id", favorite.UserID, "listing_id", favorite.ListingID, "error", err.Error())
		return fmt.Errorf("insert favorite: %w", err)
	}
	favorite.ID = doc.ID.Hex()
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	if userID == "" || listingID == "" {
		return errors.New("user id and listing id are required")
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		r.logger.Error("Remove: DeleteOne failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
		return fmt.Errorf("delete favorite: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrFavoriteNotFound
	}
	return nil
}

func (r *FavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		r.logger.Error("FindByUserID: Find failed", "user_id", userID, "error", err.Error())
		return nil, fmt.Errorf("find favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*favoriteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return toDomainFavorites(docs), nil
}

// DeleteByListingID drops every favorite pointing at a removed listing.
func (r *FavoriteRepository) DeleteByListingID(ctx context.Context, listingID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("delete favorites of listing %s: %w", listingID, err)
	}
	return res.DeletedCount, nil
}
