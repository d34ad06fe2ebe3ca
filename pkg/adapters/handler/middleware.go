package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
)

type ctxKey int

const userKey ctxKey = iota

type Middleware struct {
	accounts ports.AccountService
	cookies  *SessionCookie
}

func NewMiddleware(accounts ports.AccountService, cookies *SessionCookie) *Middleware {
	return &Middleware{accounts: accounts, cookies: cookies}
}

// UserFromContext returns the user attached by LoginRequired or OptionalUser.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey, user))
}

func (m *Middleware) resolveUser(r *http.Request) *domain.User {
	token, ok := m.cookies.Read(r)
	if !ok {
		return nil
	}

	user, err := m.accounts.CheckSession(r.Context(), token)
	if err != nil {
		if !domain.IsUnauthorized(err) {
			logger.Error("check session", zap.Error(err))
		}
		return nil
	}
	return user
}

// LoginRequired lets the request through only with a live session; otherwise
// it queues a notice and sends the browser home.
func (m *Middleware) LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.resolveUser(r)
		if user == nil {
			flash.FromContext(r.Context()).Push("sorry, you need to be logged in for that")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

// OptionalUser attaches the user when a live session exists and never denies.
func (m *Middleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolveUser(r); user != nil {
			r = withUser(r, user)
		}
		next.ServeHTTP(w, r)
	})
}
