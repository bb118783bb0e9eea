package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS code_comments (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		version  INTEGER NOT NULL DEFAULT 1,
		text     TEXT    NOT NULL,
		path     TEXT    NOT NULL DEFAULT '',
		revision TEXT    NOT NULL,
		line     INTEGER NOT NULL DEFAULT 0 CHECK (line >= 0),
		author   TEXT    NOT NULL,
		time     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS code_comments_path_revision ON code_comments (path, revision)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		username   TEXT    NOT NULL UNIQUE,
		email      TEXT    NOT NULL DEFAULT '',
		is_admin   INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		username     TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
