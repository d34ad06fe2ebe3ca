package sqlite

import "database/sql"

// Table names match databases created by earlier releases, so an existing
// shorts.db can be opened in place.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS Links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	short TEXT NOT NULL UNIQUE,
	original TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Hits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent INTEGER NOT NULL,
	time INTEGER NOT NULL,
	user_agent TEXT,
	FOREIGN KEY(parent) REFERENCES Links(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_hits_parent ON Hits(parent);

CREATE TABLE IF NOT EXISTS Users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Sessions (
	token TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	expires INTEGER NOT NULL,
	FOREIGN KEY(user_id) REFERENCES Users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON Sessions(expires);
`

func migrate(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}
