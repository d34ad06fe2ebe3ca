package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
	"github.com/wadjakorntonsri/shorts/pkg/config"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, links ports.LinkService, accounts ports.AccountService) http.Handler {
	cookies := NewSessionCookie(cfg.CookieSecret, cfg.IsProduction())

	// Initialize Handlers
	h := NewHTTPHandler(links, cfg.BaseURL, cfg.GoogleEnabled())
	ah := NewAccountHandler(accounts, cookies)

	// Initialize Middleware
	mw := NewMiddleware(accounts, cookies)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /static/", staticHandler())
	mux.Handle("GET /{$}", mw.OptionalUser(http.HandlerFunc(h.Index)))
	mux.HandleFunc("GET /x/{short}", h.Redirect)
	mux.HandleFunc("POST /account/create", ah.Create)
	mux.HandleFunc("POST /account/login", ah.Login)

	if cfg.GoogleEnabled() {
		authHandler := NewAuthHandler(cfg, accounts, cookies)
		mux.HandleFunc("GET /auth/google/login", authHandler.Login)
		mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	}

	// Session-gated Routes
	mux.Handle("GET /account/logout", mw.LoginRequired(http.HandlerFunc(ah.Logout)))
	mux.Handle("GET /info/{short}", mw.LoginRequired(http.HandlerFunc(h.Info)))
	mux.Handle("GET /delete/{short}", mw.LoginRequired(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /submit", mw.LoginRequired(http.HandlerFunc(h.Submit)))

	var handler http.Handler = flash.Middleware(mux)
	handler = Metrics(handler)
	handler = RequestLogger(handler)
	handler = handlers.ProxyHeaders(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(handler)
	return handler
}
