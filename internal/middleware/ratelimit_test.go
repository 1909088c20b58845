package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/cache"
	"github.com/cardvault/gateway/internal/model"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error

	ipCalls      int
	accountCalls int
	lastKey      string
}

func (f *fakeLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	f.ipCalls++
	f.lastKey = ip
	return f.result, f.err
}

func (f *fakeLimiter) CheckAccountRateLimit(_ context.Context, email string, _, _ int) (*cache.RateLimitResult, error) {
	f.accountCalls++
	f.lastKey = email
	return f.result, f.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitIP(t *testing.T) {
	denied := &cache.RateLimitResult{Allowed: false, RetryAfter: 3 * time.Second}

	t.Run("disabled skips limiter", func(t *testing.T) {
		limiter := &fakeLimiter{result: denied}
		h := RateLimitIP(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: false})(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		if rec.Code != http.StatusOK || limiter.ipCalls != 0 {
			t.Errorf("status = %d, calls = %d", rec.Code, limiter.ipCalls)
		}
	})

	t.Run("denied returns 429", func(t *testing.T) {
		limiter := &fakeLimiter{result: denied}
		h := RateLimitIP(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: true, PublicRPS: 1, PublicBurst: 1})(okHandler())

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429", rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != "3" {
			t.Errorf("Retry-After = %q, want 3", got)
		}
		if limiter.lastKey != "203.0.113.7" {
			t.Errorf("limited key = %q", limiter.lastKey)
		}
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: true}, err: errors.New("redis down")}
		h := RateLimitIP(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: true, PublicRPS: 1, PublicBurst: 1})(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRateLimitAccount(t *testing.T) {
	identity := &model.Identity{Email: "merchant@x.com", Role: model.RoleMerchant}
	withIdentity := func(r *http.Request) *http.Request {
		return r.WithContext(auth.ContextWithIdentity(r.Context(), identity))
	}

	t.Run("anonymous request passes", func(t *testing.T) {
		limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: false}}
		h := RateLimitAccount(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: true})(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/authorize", nil))

		if rec.Code != http.StatusOK || limiter.accountCalls != 0 {
			t.Errorf("status = %d, calls = %d", rec.Code, limiter.accountCalls)
		}
	})

	t.Run("allowed sets headers", func(t *testing.T) {
		reset := time.Unix(1_900_000_000, 0)
		limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 9, ResetAt: reset}}
		h := RateLimitAccount(RateLimitConfig{
			Logger: discardLogger(), Limiter: limiter, Enabled: true,
			AccountPerMinute: 60, AccountBurst: 10,
		})(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/payments/authorize", nil)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "60" {
			t.Errorf("X-RateLimit-Limit = %q", got)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != "9" {
			t.Errorf("X-RateLimit-Remaining = %q", got)
		}
		if got := rec.Header().Get("X-RateLimit-Reset"); got != "1900000000" {
			t.Errorf("X-RateLimit-Reset = %q", got)
		}
		if limiter.lastKey != "merchant@x.com" {
			t.Errorf("limited key = %q", limiter.lastKey)
		}
	})

	t.Run("denied has minimum retry", func(t *testing.T) {
		limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 200 * time.Millisecond}}
		h := RateLimitAccount(RateLimitConfig{
			Logger: discardLogger(), Limiter: limiter, Enabled: true,
			AccountPerMinute: 60, AccountBurst: 10,
		})(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/payments/authorize", nil)))

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != "1" {
			t.Errorf("Retry-After = %q, want 1", got)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "forwarded first hop", remoteAddr: "10.0.0.1:1", xff: " 198.51.100.2 , 10.0.0.1", want: "198.51.100.2"},
		{name: "real ip", remoteAddr: "10.0.0.1:1", xri: "198.51.100.3", want: "198.51.100.3"},
		{name: "no port", remoteAddr: "192.0.2.9", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
