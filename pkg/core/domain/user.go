package domain

import "time"

// User is an admin account. Password holds the bcrypt hash, never the plaintext.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Session binds an opaque token to a user until Expires (unix milliseconds).
type Session struct {
	Token   string `json:"-"`
	UserID  int64  `json:"user_id"`
	Expires int64  `json:"expires"`
}

// ExpiresAt converts the millisecond expiry into a time.Time.
func (s *Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.Expires)
}

// IsExpired reports whether now lies strictly after the expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return now.UnixMilli() > s.Expires
}
