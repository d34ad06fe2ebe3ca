package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
	moderncsqlite "modernc.org/sqlite" // Local SQLite driver
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if isRemote(dbURL) {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// A single connection keeps in-memory databases alive and serialises writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA foreign_keys = ON;")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func isRemote(dbURL string) bool {
	return strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") || strings.Contains(dbURL, "https://")
}

// Close releases the underlying DB.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

// isUniqueViolation detects UNIQUE / PRIMARY KEY constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(strings.ToLower(se.Error()), "unique") {
			return true
		}
	}
	// libsql reports constraint failures as plain text.
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// --- Links ---

func (r *SQLiteRepository) CreateLink(ctx context.Context, link *domain.Link) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO Links (short, original) VALUES (?, ?)`, link.Short, link.Original)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("link %q: %w", link.Short, domain.ErrDuplicateKey)
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}

func (r *SQLiteRepository) GetLinkByShort(ctx context.Context, short string) (*domain.Link, error) {
	var link domain.Link
	err := r.db.QueryRowContext(ctx, `SELECT id, short, original FROM Links WHERE short = ?`, short).
		Scan(&link.ID, &link.Short, &link.Original)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// DeleteLink removes the link and its hits in one transaction.
func (r *SQLiteRepository) DeleteLink(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM Hits WHERE parent = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM Links WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListLinksByHits(ctx context.Context) ([]domain.LinkWithHits, error) {
	query := `
		SELECT l.id, l.short, l.original, (
			SELECT COUNT(*) FROM Hits h WHERE h.parent = l.id
		) AS hits
		FROM Links l
		ORDER BY hits DESC, l.id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.LinkWithHits{}
	for rows.Next() {
		var l domain.LinkWithHits
		if err := rows.Scan(&l.ID, &l.Short, &l.Original, &l.Hits); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, short, original FROM Links ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		var l domain.Link
		if err := rows.Scan(&l.ID, &l.Short, &l.Original); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// --- Hits ---

func (r *SQLiteRepository) CreateHit(ctx context.Context, hit *domain.Hit) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO Hits (parent, time, user_agent) VALUES (?, ?, ?)`,
		hit.Parent, hit.Time, hit.UserAgent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	hit.ID = id
	return nil
}

func (r *SQLiteRepository) ListHits(ctx context.Context, linkID int64) ([]domain.Hit, error) {
	// Older databases stored fractional seconds; CAST normalises them.
	query := `SELECT id, parent, CAST(time AS INTEGER), user_agent
			  FROM Hits WHERE parent = ?
			  ORDER BY time DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := []domain.Hit{}
	for rows.Next() {
		var h domain.Hit
		var ua sql.NullString
		if err := rows.Scan(&h.ID, &h.Parent, &h.Time, &ua); err != nil {
			return nil, err
		}
		if ua.Valid {
			h.UserAgent = &ua.String
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// --- Users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO Users (email, password) VALUES (?, ?)`, user.Email, user.Password)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Email, domain.ErrDuplicateKey)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `SELECT id, email, password FROM Users WHERE email = ?`, email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, `SELECT id, email, password FROM Users WHERE id = ?`, id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Sessions ---

func (r *SQLiteRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO Sessions (expires, user_id, token) VALUES (?, ?, ?)`,
		session.Expires, session.UserID, session.Token)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("session: %w", domain.ErrDuplicateKey)
	}
	return err
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx, `SELECT token, user_id, expires FROM Sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &s.Expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM Sessions WHERE token = ?`, token)
	return err
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, nowMillis int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Sessions WHERE expires < ?`, nowMillis)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ensure interface compliance
var _ ports.Repository = (*SQLiteRepository)(nil)
