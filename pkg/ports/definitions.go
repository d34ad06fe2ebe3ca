package ports

import (
	"context"

	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
)

// Repository defines storage operations for links, hits, users and sessions.
// Lookups return (nil, nil) when the row does not exist.
type Repository interface {
	// Links
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLinkByShort(ctx context.Context, short string) (*domain.Link, error)
	DeleteLink(ctx context.Context, id int64) error // also removes the link's hits
	ListLinksByHits(ctx context.Context) ([]domain.LinkWithHits, error)
	Dump(ctx context.Context) ([]domain.Link, error) // For migration

	// Hits
	CreateHit(ctx context.Context, hit *domain.Hit) error
	ListHits(ctx context.Context, linkID int64) ([]domain.Hit, error)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, nowMillis int64) (int64, error)

	Close() error
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// LinkService defines the link and hit operations
type LinkService interface {
	ListLinksByPopularity(ctx context.Context) ([]domain.LinkWithHits, error)
	AddLink(ctx context.Context, short, original string) (*domain.Link, error)
	RemoveLink(ctx context.Context, short string) (bool, error)
	GetLink(ctx context.Context, short string) (*domain.Link, error)
	RecordHit(ctx context.Context, short string, userAgent *string) (*domain.Hit, error)
	ListHits(ctx context.Context, short string) ([]domain.Hit, error)
}

// AccountService defines user and session operations
type AccountService interface {
	CreateUser(ctx context.Context, email, password, invite string) (*domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	LoginWithEmail(ctx context.Context, email string) (*domain.Session, error)
	CheckSession(ctx context.Context, token string) (*domain.User, error)
	RemoveSession(ctx context.Context, token string) error
	PruneSessions(ctx context.Context) (int64, error)
}
