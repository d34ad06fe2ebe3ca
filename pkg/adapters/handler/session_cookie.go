package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
)

const SessionCookieName = "shorts_sid"

// SessionCookie signs the opaque session token into the shorts_sid cookie.
// The signature only proves the token was issued by this server; validity is
// always decided by the stored session.
type SessionCookie struct {
	secret []byte
	secure bool
}

func NewSessionCookie(secret string, secure bool) *SessionCookie {
	return &SessionCookie{secret: []byte(secret), secure: secure}
}

// Set writes a cookie carrying session.Token that expires with the session.
func (c *SessionCookie) Set(w http.ResponseWriter, session *domain.Session) error {
	expires := session.ExpiresAt()
	claims := &jwt.RegisteredClaims{
		Subject:   session.Token,
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the session token from a correctly signed cookie.
func (c *SessionCookie) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (c *SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
