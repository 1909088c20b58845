package handler

import (
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

var nonceAttr = regexp.MustCompile(`<script nonce="([^"]+)">`)

func TestHostedHandler_Fields(t *testing.T) {
	h := NewHostedHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "http://shop.example.com/hosted/fields", nil)
	rec := httptest.NewRecorder()

	h.Fields(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	body := rec.Body.String()
	m := nonceAttr.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("script tag carries no nonce")
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "'nonce-"+m[1]+"'") {
		t.Errorf("CSP %q does not allow nonce %q", csp, m[1])
	}

	// JS string escaping may render "/" as "\/".
	script := strings.ReplaceAll(body, `\/`, "/")
	for _, want := range []string{
		`"http://shop.example.com"`,
		"hostedReady",
		"vaultedToken",
		"'tokenize'",
		"evt.origin !== parentOrigin",
		`"/vault/tokenize"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHostedHandler_FreshNoncePerRequest(t *testing.T) {
	h := NewHostedHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	nonce := func() string {
		rec := httptest.NewRecorder()
		h.Fields(rec, httptest.NewRequest(http.MethodGet, "/hosted/fields", nil))
		m := nonceAttr.FindStringSubmatch(rec.Body.String())
		if m == nil {
			t.Fatal("no nonce")
		}
		return m[1]
	}

	if nonce() == nonce() {
		t.Error("nonce reused across requests")
	}
}

func TestRequestOrigin(t *testing.T) {
	tests := []struct {
		name  string
		tls   bool
		proto string
		want  string
	}{
		{name: "plain", want: "http://pay.example.com"},
		{name: "tls", tls: true, want: "https://pay.example.com"},
		{name: "forwarded https", proto: "https, http", want: "https://pay.example.com"},
		{name: "forwarded garbage", proto: "javascript", want: "http://pay.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://pay.example.com/hosted/fields", nil)
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			if got := requestOrigin(req); got != tt.want {
				t.Errorf("requestOrigin() = %q, want %q", got, tt.want)
			}
		})
	}
}
