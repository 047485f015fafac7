package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/rest/middleware"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
)

type FavoriteService interface {
	AddFavorite(ctx context.Context, caller domain.Caller, listingID string) error
	RemoveFavorite(ctx context.Context, caller domain.Caller, listingID string) error
	GetFavorites(ctx context.Context, caller domain.Caller) ([]*domain.Favorite, error)
}

type FavoriteHandler struct {
	svc    FavoriteService
	logger *logger.Logger
}

func NewFavoriteHandler(svc FavoriteService, log *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{svc: svc, logger: log.Named("FavoriteHandler")}
}

// Add handles POST /api/clothes/{id}/favorite.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.svc.AddFavorite(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, "AddFavorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/clothes/{id}/favorite.
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.svc.RemoveFavorite(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, "RemoveFavorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/favorites.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	favs, err := h.svc.GetFavorites(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.logger, "GetFavorites", err)
		return
	}
	out := make([]favoriteResponse, 0, len(favs))
	for _, f := range favs {
		out = append(out, favoriteResponse{ListingID: f.ListingID, CreatedAt: f.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}
