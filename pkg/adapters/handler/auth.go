package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
	"github.com/wadjakorntonsri/shorts/pkg/config"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
)

const (
	oauthStateCookie = "oauthstate"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthHandler signs existing users in through Google. It never creates
// accounts; sign-up stays behind the invite code.
type AuthHandler struct {
	oauthConfig  *oauth2.Config
	accounts     ports.AccountService
	cookies      *SessionCookie
	userInfoURL  string
	isProduction bool
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}

func NewAuthHandler(cfg *config.Config, accounts ports.AccountService, cookies *SessionCookie) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
		accounts:     accounts,
		cookies:      cookies,
		userInfoURL:  googleUserInfo,
		isProduction: cfg.IsProduction(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		logger.Error("generate oauth state", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	f := flash.FromContext(r.Context())
	fail := func(msg string, fields ...zap.Field) {
		logger.Warn(msg, fields...)
		f.Push("Google sign-in failed.")
		http.Redirect(w, r, "/", http.StatusFound)
	}

	oauthState, err := r.Cookie(oauthStateCookie)
	if err != nil || r.FormValue("state") != oauthState.Value {
		fail("oauth callback: state mismatch")
		return
	}
	h.clearStateCookie(w)

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		fail("oauth callback: code exchange failed", zap.Error(err))
		return
	}

	googleUser, err := h.fetchUser(r, token)
	if err != nil {
		fail("oauth callback: user info", zap.Error(err))
		return
	}
	if !googleUser.VerifiedEmail {
		fail("oauth callback: unverified email", zap.String("email", googleUser.Email))
		return
	}

	session, err := h.accounts.LoginWithEmail(r.Context(), googleUser.Email)
	if err != nil {
		fail("oauth callback: no matching account", zap.String("email", googleUser.Email), zap.Error(err))
		return
	}
	if err := h.cookies.Set(w, session); err != nil {
		fail("oauth callback: set session cookie", zap.Error(err))
		return
	}

	logger.Info("google login", zap.Int64("user_id", session.UserID))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) fetchUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &user, nil
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
