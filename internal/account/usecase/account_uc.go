package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/account/domain"
	listing "github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/auth"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 4
	// bcrypt only accepts up to 72 bytes of input.
	maxPasswordBytes = 72
)

type LoginResult struct {
	Token    string
	UserID   string
	Username string
	Role     listing.Role
}

type AccountUsecase struct {
	repo          domain.UserRepository
	tokens        *auth.TokenManager
	allowedDomain string
	logger        *logger.Logger
}

// NewAccountUsecase restricts registration to e-mail handles at allowedDomain; empty allows any domain.
func NewAccountUsecase(repo domain.UserRepository, tokens *auth.TokenManager, allowedDomain string, log *logger.Logger) *AccountUsecase {
	return &AccountUsecase{
		repo:          repo,
		tokens:        tokens,
		allowedDomain: strings.ToLower(allowedDomain),
		logger:        log,
	}
}

func (uc *AccountUsecase) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := uc.validateUsername(username); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidAccount, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidAccount, maxPasswordBytes)
	}

	r := listing.RoleBrowser
	if strings.TrimSpace(role) != "" {
		parsed, ok := listing.ParseRole(role)
		if !ok {
			return nil, fmt.Errorf("%w: role must be lister or browser", domain.ErrInvalidAccount)
		}
		r = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         r,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			uc.logger.Info("AccountUsecase.Register: username taken", "username", username)
			return nil, err
		}
		uc.logger.Error("AccountUsecase.Register: failed to create user", "username", username, "error", err.Error())
		return nil, fmt.Errorf("create user: %w", err)
	}
	uc.logger.Info("AccountUsecase.Register: user registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

func (uc *AccountUsecase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := uc.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		uc.logger.Error("AccountUsecase.Login: failed to load user", "username", username, "error", err.Error())
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.logger.Info("AccountUsecase.Login: wrong password", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID, string(user.Role), user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (uc *AccountUsecase) validateUsername(username string) error {
	addr, err := mail.ParseAddress(username)
	if err != nil || addr.Address != username {
		return fmt.Errorf("%w: username must be an e-mail address", domain.ErrInvalidAccount)
	}
	if uc.allowedDomain == "" {
		return nil
	}
	if !strings.HasSuffix(username, "@"+uc.allowedDomain) {
		return fmt.Errorf("%w: only @%s addresses may register", domain.ErrInvalidAccount, uc.allowedDomain)
	}
	return nil
}
