// Package rest exposes the listing, account and favorite use cases over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	accountdomain "github.com/jrybusiness/stylerental-backend/internal/account/domain"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, accountdomain.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, accountdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrFavoriteNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateFavorite),
		errors.Is(err, accountdomain.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError writes err as JSON. Internal details of 5xx errors stay in the log.
func handleServiceError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := statusFor(err)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, errorResponse{Error: domain.ErrValidation.Error(), Fields: verr.Fields})
		return
	}

	switch status {
	case http.StatusInternalServerError:
		log.Error(op+": internal error", "error", err.Error())
		writeError(w, status, "internal server error")
	case http.StatusBadGateway:
		log.Error(op+": content store failure", "error", err.Error())
		writeError(w, status, domain.ErrStoreFailure.Error())
	default:
		writeError(w, status, err.Error())
	}
}
