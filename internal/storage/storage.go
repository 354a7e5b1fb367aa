// Package storage provides the SQLite record store for papers, users
// and libraries.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Errors returned by storage operations.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			arxiv_id TEXT NOT NULL UNIQUE,
			version INTEGER NOT NULL DEFAULT 1,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			summary TEXT,
			category TEXT,
			abs_url TEXT,
			pdf_url TEXT,
			published INTEGER,
			updated INTEGER,
			embedding_json TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published DESC);
		CREATE INDEX IF NOT EXISTS idx_papers_title ON papers(title);

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS library (
			user_id INTEGER NOT NULL REFERENCES users(id),
			paper_id INTEGER NOT NULL REFERENCES papers(id),
			saved_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, paper_id)
		);

		CREATE INDEX IF NOT EXISTS idx_library_paper ON library(paper_id);
	`

	_, err := db.Exec(schema)
	return err
}
