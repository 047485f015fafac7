package domain

import (
	"context"
	"errors"
	"time"

	listing "github.com/jrybusiness/stylerental-backend/internal/listing/domain"
)

var (
	ErrInvalidAccount     = errors.New("invalid account data")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         listing.Role
	CreatedAt    time.Time
}

// UserRepository stores accounts. Create reports ErrUsernameTaken on a duplicate handle.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}
