package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
)

// DefaultSessionTTL is how long a freshly minted session stays valid.
const DefaultSessionTTL = 2 * time.Hour

type AccountService struct {
	repo       ports.Repository
	hasher     ports.PasswordHasher
	invite     string
	sessionTTL time.Duration
	now        func() time.Time
}

type AccountOption func(*AccountService)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) AccountOption {
	return func(s *AccountService) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

func NewAccountService(repo ports.Repository, hasher ports.PasswordHasher, invite string, opts ...AccountOption) *AccountService {
	s := &AccountService{
		repo:       repo,
		hasher:     hasher,
		invite:     invite,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers a new account when invite matches the configured code,
// then logs the user in. An unset invite code disables sign-up entirely.
func (s *AccountService) CreateUser(ctx context.Context, email, password, invite string) (*domain.Session, error) {
	if s.invite == "" || subtle.ConstantTimeCompare([]byte(invite), []byte(s.invite)) != 1 {
		return nil, fmt.Errorf("invite rejected: %w", domain.ErrUnauthorized)
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Email: email, Password: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.Login(ctx, email, password)
}

// Login verifies the credentials and mints a new session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(user.Password, password) {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.newSession(ctx, user)
}

// LoginWithEmail mints a session for an existing account whose identity was
// already proven by an external provider.
func (s *AccountService) LoginWithEmail(ctx context.Context, email string) (*domain.Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("no account for %q: %w", email, domain.ErrUnauthorized)
	}
	return s.newSession(ctx, user)
}

func (s *AccountService) newSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	session := &domain.Session{
		Token:   uuid.NewString(),
		UserID:  user.ID,
		Expires: s.now().Add(s.sessionTTL).UnixMilli(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CheckSession resolves token to its user. Missing, expired and orphaned
// sessions all yield ErrUnauthorized. Expiry is only checked here, on read.
func (s *AccountService) CheckSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsExpired(s.now()) {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *AccountService) RemoveSession(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// PruneSessions deletes sessions that have already expired.
func (s *AccountService) PruneSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now().UnixMilli())
}

var _ ports.AccountService = (*AccountService)(nil)
