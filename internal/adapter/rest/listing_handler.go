package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/rest/middleware"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/listing/usecase"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
)

// ListingService is the part of usecase.ListingUsecase served over HTTP.
type ListingService interface {
	Create(ctx context.Context, caller domain.Caller, input domain.ListingInput, uploads []domain.Upload) (*domain.Listing, error)
	Update(ctx context.Context, caller domain.Caller, id string, patch domain.ListingPatch, uploads []domain.Upload) (*domain.Listing, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error
	Get(ctx context.Context, id string) (*domain.Listing, error)
	Search(ctx context.Context, filter domain.Filter) (*usecase.SearchResult, error)
	AuditImages(ctx context.Context, caller domain.Caller, id string) ([]string, error)
	ImageURL(key string) string
}

type ListingHandler struct {
	svc          ListingService
	maxFiles     int
	maxFileBytes int64
	logger       *logger.Logger
}

func NewListingHandler(svc ListingService, maxFiles int, maxFileBytes int64, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		svc:          svc,
		maxFiles:     maxFiles,
		maxFileBytes: maxFileBytes,
		logger:       log.Named("ListingHandler"),
	}
}

// Create handles POST /api/clothes.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	uploads, ok := h.readForm(w, r)
	if !ok {
		return
	}

	listing, err := h.svc.Create(r.Context(), caller, listingInputFromForm(r), uploads)
	if err != nil {
		handleServiceError(w, h.logger, "Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing, h.svc.ImageURL))
}

// Update handles PUT /api/clothes/{id}.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	uploads, ok := h.readForm(w, r)
	if !ok {
		return
	}

	listing, err := h.svc.Update(r.Context(), caller, chi.URLParam(r, "id"), listingPatchFromForm(r), uploads)
	if err != nil {
		handleServiceError(w, h.logger, "Update", err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, h.svc.ImageURL))
}

// Delete handles DELETE /api/clothes/{id}.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.svc.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/clothes/{id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, h.svc.ImageURL))
}

// Search handles GET /api/clothes?search=&occasion=&gender=&owner=&page=&limit=.
// q is accepted as a shorter alias of search.
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("search")
	if text == "" {
		text = q.Get("q")
	}
	filter := domain.Filter{
		Query:    text,
		Occasion: q.Get("occasion"),
		Gender:   q.Get("gender"),
		OwnerID:  q.Get("owner"),
	}
	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	res, err := h.svc.Search(r.Context(), filter)
	if err != nil {
		handleServiceError(w, h.logger, "Search", err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(res, h.svc.ImageURL))
}

// AuditImages handles GET /api/clothes/{id}/images/audit.
func (h *ListingHandler) AuditImages(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")
	missing, err := h.svc.AuditImages(r.Context(), caller, id)
	if err != nil {
		handleServiceError(w, h.logger, "AuditImages", err)
		return
	}
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, auditResponse{ListingID: id, Missing: missing})
}

func (h *ListingHandler) readForm(w http.ResponseWriter, r *http.Request) ([]domain.Upload, bool) {
	if err := parseListingForm(w, r, h.maxFiles, h.maxFileBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	uploads, err := uploadsFromForm(r, h.maxFileBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return uploads, true
}

func intParam(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
