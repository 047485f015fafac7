package rest

import (
	"context"
	"encoding/json"
	"net/http"

	accountdomain "github.com/jrybusiness/stylerental-backend/internal/account/domain"
	accountuc "github.com/jrybusiness/stylerental-backend/internal/account/usecase"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
)

type AccountService interface {
	Register(ctx context.Context, username, password, role string) (*accountdomain.User, error)
	Login(ctx context.Context, username, password string) (*accountuc.LoginResult, error)
}

type AccountHandler struct {
	svc    AccountService
	logger *logger.Logger
}

func NewAccountHandler(svc AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: log.Named("AccountHandler")}
}

// Register handles POST /api/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		handleServiceError(w, h.logger, "Register", err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Role: string(user.Role)})
}

// Login handles POST /api/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, "Login", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:    res.Token,
		UserID:   res.UserID,
		Username: res.Username,
		Role:     string(res.Role),
	})
}
