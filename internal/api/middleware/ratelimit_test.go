package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventease/server/internal/config"
)

func TestLoginRateLimit_AllowsInitialBurst(t *testing.T) {
	cfg := config.RateLimitConfig{LoginPerMinute: 5}

	handler := LoginRateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		if res.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, res.Code)
		}
	}
}

func TestLoginRateLimit_BlocksAfterBurst(t *testing.T) {
	cfg := config.RateLimitConfig{LoginPerMinute: 5}

	handler := LoginRateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	clientIP := "192.168.1.101:54321"

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = clientIP
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = clientIP
	res := httptest.NewRecorder()

	handler.ServeHTTP(res, req)

	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", res.Code)
	}
	if got := res.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After header to be 60, got %s", got)
	}
}

func TestLoginRateLimit_PerIPIsolation(t *testing.T) {
	cfg := config.RateLimitConfig{LoginPerMinute: 5}

	handler := LoginRateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	res := httptest.NewRecorder()

	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("second IP should not be limited, got %d", res.Code)
	}
}

func TestLoginRateLimit_DisabledWhenZero(t *testing.T) {
	cfg := config.RateLimitConfig{LoginPerMinute: 0}

	handler := LoginRateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.3:1000"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("limit disabled, request %d got %d", i+1, res.Code)
		}
	}
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:44210"
	if got := clientKey(req); got != "203.0.113.9" {
		t.Fatalf("clientKey = %q, want %q", got, "203.0.113.9")
	}
}
