package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/password"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorts/pkg/config"
	"github.com/wadjakorntonsri/shorts/pkg/core/services"
)

const (
	testInvite = "letmein"
	testSecret = "testsecret"
	testEmail  = "admin@example.com"
	testPass   = "hunter22"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type testApp struct {
	handler  http.Handler
	repo     *sqlite.SQLiteRepository
	links    *services.LinkService
	accounts *services.AccountService
	cookies  *SessionCookie
	clock    *fakeClock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := sqlite.NewSQLiteRepository("file:http_" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clock := &fakeClock{t: time.Now()}
	cfg := &config.Config{
		BaseURL:      "http://sho.rt",
		InviteCode:   testInvite,
		CookieSecret: testSecret,
		AppEnv:       "test",
	}
	links := services.NewLinkService(repo)
	accounts := services.NewAccountService(repo, password.NewBcryptHasher(bcrypt.MinCost), testInvite,
		services.WithClock(clock.Now))

	return &testApp{
		handler:  NewRouter(cfg, links, accounts),
		repo:     repo,
		links:    links,
		accounts: accounts,
		cookies:  NewSessionCookie(testSecret, false),
		clock:    clock,
	}
}

// login creates the test account and returns a signed session cookie.
func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	session, err := a.accounts.CreateUser(context.Background(), testEmail, testPass, testInvite)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, a.cookies.Set(rr, session))
	c := responseCookie(rr, SessionCookieName)
	require.NotNil(t, c)
	return c
}

func (a *testApp) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func responseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// flashMessages decodes the flash queue left on the response.
func flashMessages(t *testing.T, rr *httptest.ResponseRecorder) []string {
	t.Helper()
	c := responseCookie(rr, flash.CookieName)
	if c == nil || c.MaxAge < 0 {
		return nil
	}
	raw, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	var msgs []string
	require.NoError(t, json.Unmarshal([]byte(raw), &msgs))
	return msgs
}
