package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/password"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorts/pkg/config"
	"github.com/wadjakorntonsri/shorts/pkg/core/services"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.AppEnv, cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.InviteCode == "" {
		logger.Warn("SHORTS_INVITE is not set, account creation is disabled")
	}
	if cfg.CookieSecret == "secret" && cfg.IsProduction() {
		logger.Warn("SHORTS_SECRET is the default value")
	}

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	mux := newHandler(cfg, repo)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
		zap.Bool("google_login", cfg.GoogleEnabled()),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newHandler wires services on top of repo and returns the root handler.
func newHandler(cfg *config.Config, repo *sqlite.SQLiteRepository) http.Handler {
	links := services.NewLinkService(repo)
	accounts := services.NewAccountService(
		repo,
		password.NewBcryptHasher(cfg.BcryptCost),
		cfg.InviteCode,
		services.WithSessionTTL(cfg.SessionTTL),
	)
	return handler.NewRouter(cfg, links, accounts)
}
