package main

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorts/pkg/config"
)

func newTestServer(t *testing.T, dbName string) (*httptest.Server, *sqlite.SQLiteRepository) {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository("file:" + dbName + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	cfg := &config.Config{
		BaseURL:      "http://sho.rt",
		InviteCode:   "letmein",
		CookieSecret: "e2e-secret",
		BcryptCost:   4,
		AppEnv:       "test",
	}
	server := httptest.NewServer(newHandler(cfg, repo))
	t.Cleanup(server.Close)
	return server, repo
}

// browser follows redirects and keeps cookies.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIntegration(t *testing.T) {
	server, _ := newTestServer(t, "e2e_integration")
	client := browser(t)

	// TEST 1: Create the admin account with the invite code
	resp, err := client.PostForm(server.URL+"/account/create", url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter22"},
		"invite":   {"letmein"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Account created successfully.")
	assert.Contains(t, body, "admin@example.com")

	// TEST 2: Add a link
	resp, err = client.PostForm(server.URL+"/submit", url.Values{
		"short": {"abc"},
		"url":   {"https://example.com/landing"},
	})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Created short link successfully.")

	// TEST 3: Redirect records exactly one hit
	anon := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	req, err := http.NewRequest(http.MethodGet, server.URL+"/x/abc", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "e2e-agent/1.0")
	resp, err = anon.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/landing", resp.Header.Get("Location"))

	resp, err = client.Get(server.URL + "/info/abc")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "1 hits")
	assert.Contains(t, body, "e2e-agent/1.0")

	// TEST 4: Unknown short is a plain 404
	resp, err = anon.Get(server.URL + "/x/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "no link missing")

	// TEST 5: Delete, then the short is gone
	resp, err = client.Get(server.URL + "/delete/abc")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), `Deleted shortlink &#34;abc&#34; successfully.`)

	resp, err = anon.Get(server.URL + "/x/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// TEST 6: Logout closes the gated routes again
	resp, err = client.Get(server.URL + "/account/logout")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "logged out successfully!")

	resp, err = client.PostForm(server.URL+"/submit", url.Values{"short": {"x"}, "url": {"https://example.com"}})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "sorry, you need to be logged in for that")
}

func TestInviteRequired(t *testing.T) {
	server, repo := newTestServer(t, "e2e_invite")
	client := browser(t)

	resp, err := client.PostForm(server.URL+"/account/create", url.Values{
		"email":    {"intruder@example.com"},
		"password": {"hunter22"},
		"invite":   {"guess"},
	})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "You are not permitted to create an account.")

	user, err := repo.GetUserByEmail(t.Context(), "intruder@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	resp, err = client.Get(server.URL + "/info/anything")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "sorry, you need to be logged in for that")
}

func TestMetricsAndHealth(t *testing.T) {
	server, _ := newTestServer(t, "e2e_metrics")

	resp, err := server.Client().Get(server.URL + "/healthz")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok"}`, readBody(t, resp))

	resp, err = server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "http_requests_total")

	resp, err = server.Client().Get(server.URL + "/static/style.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
