package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/digisken/smsauth/internal/auth"
	"github.com/digisken/smsauth/internal/handler"
	"github.com/digisken/smsauth/internal/middleware"
	"github.com/digisken/smsauth/internal/sms"
	"github.com/digisken/smsauth/internal/store"
)

type Server struct {
	db          *sql.DB
	service     *auth.Service
	authH       *handler.AuthHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, notifier sms.Notifier, bcryptCost int, logger *slog.Logger) *Server {
	service := auth.NewService(
		store.NewUserStore(db),
		store.NewOtpStore(db),
		store.NewSessionStore(db),
		notifier,
		bcryptCost,
		logger.With("component", "auth"),
	)

	return &Server{
		db:          db,
		service:     service,
		authH:       handler.NewAuthHandler(service, logger.With("component", "handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Service returns the auth service for cleanup tasks.
func (s *Server) Service() *auth.Service {
	return s.service
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Credential and OTP endpoints get a per-IP limit on top of the
	// per-phone OTP lockout the service enforces.
	mux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /verify-otp", s.rateLimitedHandler(s.authH.VerifyOTP))
	mux.HandleFunc("POST /resend-otp", s.rateLimitedHandler(s.authH.ResendOTP))

	mux.HandleFunc("POST /verify-session", s.authH.VerifySession)
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /health", s.authH.Health)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
