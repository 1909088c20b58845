package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/model"
)

// SessionVerifier validates a bearer credential.
type SessionVerifier interface {
	Verify(token string) (*model.Identity, error)
}

// RevocationChecker reports revoked credential ids.
type RevocationChecker interface {
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Sessions SessionVerifier
	// Revocations is optional; nil disables the revocation check.
	Revocations RevocationChecker
}

// RequireSession authenticates requests carrying "Authorization: Bearer <token>"
// and injects the verified identity into the request context.
func RequireSession(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			id, err := cfg.Sessions.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrSessionExpired) {
					logAuthFailure(cfg.Logger, r, "expired")
					writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired")
					return
				}
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeError(w, http.StatusUnauthorized, "INVALID_SESSION", "Invalid session")
				return
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsSessionRevoked(r.Context(), id.SessionID)
				if err != nil {
					// Fail open: credentials still expire on their own.
					cfg.Logger.Error("session revocation check failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				} else if revoked {
					logAuthFailure(cfg.Logger, r, "revoked")
					writeError(w, http.StatusUnauthorized, "SESSION_REVOKED", "Session revoked")
					return
				}
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the credential from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", getClientIP(r)),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}
