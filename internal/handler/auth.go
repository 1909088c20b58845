package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/handler/dto"
	"github.com/cardvault/gateway/internal/service"
)

// SessionRevoker blocks a session credential until it expires.
type SessionRevoker interface {
	RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error
}

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	svc     *service.IdentityService
	revoker SessionRevoker
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. revoker may be nil, in which
// case logout is not offered.
func NewAuthHandler(svc *service.IdentityService, revoker SessionRevoker, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, revoker: revoker, logger: logger}
}

// CanLogout reports whether session revocation is available.
func (h *AuthHandler) CanLogout() bool {
	return h.revoker != nil
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.svc.Signup(r.Context(), service.Credentials{Email: req.Email, Password: req.Password}); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), service.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLoginResponse(result.Token, result.Account))
}

// Logout handles POST /auth/logout. The presented credential is rejected
// from now until its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		writeServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}

	if err := h.revoker.RevokeSession(r.Context(), id.SessionID, id.ExpiresAt); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("session_revoked", "email", id.Email)
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
