package mongodb

import (
	"context"
	"errors"
	"fmt"

	account "github.com/jrybusiness/stylerental-backend/internal/account/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	collection := db.Collection(userCollectionName)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if err := ensureIndexes(collection, indexes); err != nil {
		log.Warn("UserRepository: failed to ensure indexes", "collection", userCollectionName, "error", err.Error())
	}
	return &UserRepository{collection: collection, logger: log.Named("UserRepository")}
}

func (r *UserRepository) Create(ctx context.Context, user *account.User) error {
	doc := &userDocument{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.ErrUsernameTaken
		}
		r.logger.Error("Create: InsertOne failed", "username", user.Username, "error", err.Error())
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*account.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.ErrUserNotFound
		}
		r.logger.Error("FindByUsername: FindOne failed", "username", username, "error", err.Error())
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(&doc), nil
}
