package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
)

type FavoriteUsecase struct {
	repo     domain.FavoriteRepository
	listings domain.ListingRepository
	logger   *logger.Logger
}

func NewFavoriteUsecase(repo domain.FavoriteRepository, listings domain.ListingRepository, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		repo:     repo,
		listings: listings,
		logger:   log,
	}
}

func (uc *FavoriteUsecase) AddFavorite(ctx context.Context, caller domain.Caller, listingID string) error {
	uc.logger.Info("FavoriteUsecase.AddFavorite: adding favorite", "user_id", caller.ID, "listing_id", listingID)

	if _, err := uc.listings.FindByID(ctx, listingID); err != nil {
		if !errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Error("FavoriteUsecase.AddFavorite: failed to look up listing", "listing_id", listingID, "error", err.Error())
		}
		return err
	}

	favorite := &domain.Favorite{
		UserID:    caller.ID,
		ListingID: listingID,
		CreatedAt: time.Now(),
	}
	err := uc.repo.Add(ctx, favorite)
	if err != nil && !errors.Is(err, domain.ErrDuplicateFavorite) {
		uc.logger.Error("FavoriteUsecase.AddFavorite: failed to add favorite", "user_id", caller.ID, "listing_id", listingID, "error", err.Error())
	}
	return err
}

func (uc *FavoriteUsecase) RemoveFavorite(ctx context.Context, caller domain.Caller, listingID string) error {
	uc.logger.Info("FavoriteUsecase.RemoveFavorite: removing favorite", "user_id", caller.ID, "listing_id", listingID)
	err := uc.repo.Remove(ctx, caller.ID, listingID)
	if err != nil && !errors.Is(err, domain.ErrFavoriteNotFound) {
		uc.logger.Error("FavoriteUsecase.RemoveFavorite: failed to remove favorite", "user_id", caller.ID, "listing_id", listingID, "error", err.Error())
	}
	return err
}

func (uc *FavoriteUsecase) GetFavorites(ctx context.Context, caller domain.Caller) ([]*domain.Favorite, error) {
	uc.logger.Debug("FavoriteUsecase.GetFavorites: fetching favorites", "user_id", caller.ID)
	favorites, err := uc.repo.FindByUserID(ctx, caller.ID)
	if err != nil {
		uc.logger.Error("FavoriteUsecase.GetFavorites: failed to fetch favorites", "user_id", caller.ID, "error", err.Error())
		return nil, err
	}
	if favorites == nil {
		favorites = []*domain.Favorite{}
	}
	return favorites, nil
}
