package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/digisken/smsauth/internal/database"
)

type dropNotifier struct{}

func (dropNotifier) SendOTP(phoneNumber, code string) error { return nil }

func setupServer(t *testing.T) *Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, dropNotifier{}, 4, slog.New(slog.DiscardHandler))
}

func TestRouterHealth(t *testing.T) {
	router := setupServer(t).Router()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "OK" {
		t.Errorf("status field = %q, want OK", resp["status"])
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := setupServer(t).Router()

	req := httptest.NewRequest("GET", "/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestRouterIPRateLimit(t *testing.T) {
	router := setupServer(t).Router()

	body := `{"phone_number":"+15551234567","password":"Wr0ng!Pass"}`
	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("11th request status = %d, want %d", last, http.StatusTooManyRequests)
	}

	// A different source IP is unaffected
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.2:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code == http.StatusTooManyRequests {
		t.Error("different IP should not be rate limited")
	}
}
