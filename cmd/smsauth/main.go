package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/digisken/smsauth/internal/config"
	"github.com/digisken/smsauth/internal/database"
	"github.com/digisken/smsauth/internal/logging"
	"github.com/digisken/smsauth/internal/server"
	"github.com/digisken/smsauth/internal/sms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var notifier sms.Notifier
	gateway := sms.NewClient(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender)
	if gateway.Configured() {
		notifier = gateway
		logger.Info("sms gateway configured", "sender", cfg.SMSSender)
	} else {
		notifier = sms.NewConsoleNotifier(logger.With("component", "sms"))
		logger.Warn("no SMS_API_KEY set, OTP codes will be logged to the console")
	}

	srv := server.New(db, notifier, cfg.BcryptCost, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.Service().Cleanup()
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("smsauth starting", "addr", cfg.Addr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
