package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"lendledger/internal/config"
)

func TestRateLimiterMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("disabled limiter passes everything through", func(t *testing.T) {
		middleware := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: false}, logger)
		handler := middleware.Middleware(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		req.RemoteAddr = "10.1.2.3:40000"

		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
		}
	})

	t.Run("allows requests within the burst", func(t *testing.T) {
		middleware := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2}, logger)
		handler := middleware.Middleware(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		req.RemoteAddr = "10.1.2.3:40000"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("rejects requests past the burst with a JSON body", func(t *testing.T) {
		middleware := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, logger)
		handler := middleware.Middleware(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		req.RemoteAddr = "10.1.2.4:40000"

		rec1 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, req)
		if rec1.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec1.Code)
		}

		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec2, req)
		if rec2.Code != http.StatusTooManyRequests {
			t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, rec2.Code)
		}

		var response map[string]any
		if err := json.NewDecoder(rec2.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["error"].(map[string]any)["message"] != "Rate limit exceeded" {
			t.Errorf("unexpected error message: %v", response)
		}
	})

	t.Run("limits are tracked per client IP", func(t *testing.T) {
		middleware := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, logger)
		handler := middleware.Middleware(okHandler)

		first := httptest.NewRequest(http.MethodGet, "/loans", nil)
		first.RemoteAddr = "10.9.0.1:50000"
		rec1 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, first)

		// A different client is not affected by the first client's spend.
		second := httptest.NewRequest(http.MethodGet, "/loans", nil)
		second.RemoteAddr = "10.9.0.2:50000"
		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec2, second)

		if rec2.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec2.Code)
		}
	})

	t.Run("extractIP prefers forwarding headers", func(t *testing.T) {
		middleware := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, logger)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		if ip := middleware.extractIP(req); ip != "203.0.113.7" {
			t.Errorf("expected IP %s, got %s", "203.0.113.7", ip)
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "198.51.100.9")
		if ip := middleware.extractIP(req); ip != "198.51.100.9" {
			t.Errorf("expected IP %s, got %s", "198.51.100.9", ip)
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		if ip := middleware.extractIP(req); ip != "127.0.0.1" {
			t.Errorf("expected IP %s, got %s", "127.0.0.1", ip)
		}
	})
}
