package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
)

func TestLoginRequired(t *testing.T) {
	app := newTestApp(t)
	valid := app.login(t)
	mw := NewMiddleware(app.accounts, app.cookies)

	tests := []struct {
		name           string
		cookie         *http.Cookie
		expectedStatus int
	}{
		{
			name:           "No Cookie",
			expectedStatus: http.StatusFound,
		},
		{
			name:           "Garbage Cookie",
			cookie:         &http.Cookie{Name: SessionCookieName, Value: "invalid"},
			expectedStatus: http.StatusFound,
		},
		{
			name:           "Wrong Secret",
			cookie:         &http.Cookie{Name: SessionCookieName, Value: signedToken(t, "other", valid)},
			expectedStatus: http.StatusFound,
		},
		{
			name:           "Unknown Session",
			cookie:         &http.Cookie{Name: SessionCookieName, Value: signedToken(t, testSecret, &http.Cookie{Value: "nope"})},
			expectedStatus: http.StatusFound,
		},
		{
			name:           "Valid Session",
			cookie:         valid,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/info/abc", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}

			var seen bool
			rr := httptest.NewRecorder()
			handler := flash.Middleware(mw.LoginRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = UserFromContext(r.Context()) != nil
				w.WriteHeader(http.StatusOK)
			})))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.True(t, seen, "user should be attached to the context")
				return
			}
			assert.Equal(t, "/", rr.Header().Get("Location"))
			assert.Equal(t, []string{"sorry, you need to be logged in for that"}, flashMessages(t, rr))
		})
	}
}

func TestLoginRequired_ExpiredSession(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	mw := NewMiddleware(app.accounts, app.cookies)
	handler := flash.Middleware(mw.LoginRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	app.clock.t = app.clock.t.Add(3 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusFound, rr.Code)
}

func TestOptionalUser(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)
	mw := NewMiddleware(app.accounts, app.cookies)

	var email string
	handler := mw.OptionalUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email = ""
		if u := UserFromContext(r.Context()); u != nil {
			email = u.Email
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, email)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, testEmail, email)
}

func TestSessionCookie_ExpiresWithSession(t *testing.T) {
	app := newTestApp(t)
	session, err := app.accounts.CreateUser(context.Background(), testEmail, testPass, testInvite)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, app.cookies.Set(rr, session))
	c := responseCookie(rr, SessionCookieName)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, session.ExpiresAt().Unix(), c.Expires.Unix())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	token, ok := app.cookies.Read(req)
	require.True(t, ok)
	assert.Equal(t, session.Token, token)
}

// signedToken re-signs the session token carried by c with secret.
func signedToken(t *testing.T, secret string, c *http.Cookie) string {
	t.Helper()
	subject := c.Value
	if parsed, _, err := jwt.NewParser().ParseUnverified(c.Value, &jwt.RegisteredClaims{}); err == nil {
		if sub, err := parsed.Claims.GetSubject(); err == nil {
			subject = sub
		}
	}

	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}
