package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/password"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorts/pkg/config"
	"github.com/wadjakorntonsri/shorts/pkg/core/services"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	if err := logger.Init(cfg.AppEnv, cfg.LogLevel, ""); err != nil {
		panic(err)
	}

	// On Vercel a local SQLite file is ephemeral; point SHORTS_DB at a libsql:// URL.
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	links := services.NewLinkService(repo)
	accounts := services.NewAccountService(
		repo,
		password.NewBcryptHasher(cfg.BcryptCost),
		cfg.InviteCode,
		services.WithSessionTTL(cfg.SessionTTL),
	)
	mux = handler.NewRouter(cfg, links, accounts)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
