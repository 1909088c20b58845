package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cardvault/gateway/internal/middleware"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Logger *slog.Logger

	Auth     *AuthHandler
	Vault    *VaultHandler
	Payments *PaymentHandler
	Hosted   *HostedHandler
	Health   *HealthHandler
	Metrics  *MetricsHandler

	Session   middleware.AuthConfig
	RateLimit middleware.RateLimitConfig
	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig

	// StaticDir is served at / when set.
	StaticDir string
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Security.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
	}

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	r.Get("/hosted/fields", cfg.Hosted.Fields)

	requireSession := middleware.RequireSession(cfg.Session)

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/signup", cfg.Auth.Signup)
		r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/login", cfg.Auth.Login)
		if cfg.Auth.CanLogout() {
			r.With(requireSession).Post("/logout", cfg.Auth.Logout)
		}
	})

	r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/vault/tokenize", cfg.Vault.Tokenize)

	r.Route("/payments", func(r chi.Router) {
		r.Use(requireSession)
		r.Use(middleware.RateLimitAccount(cfg.RateLimit))

		r.Post("/authorize", cfg.Payments.Authorize)
		r.Post("/capture", cfg.Payments.Capture)
		r.Post("/refund", cfg.Payments.Refund)
		r.Get("/authorizations", cfg.Payments.List)
		r.Get("/authorizations/{id}", cfg.Payments.Get)
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", middleware.StaticPageHeaders(http.FileServer(http.Dir(cfg.StaticDir))))
	} else {
		r.NotFound(NotFound)
	}
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
