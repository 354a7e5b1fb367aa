package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser registers a new user with a bcrypt-hashed password and
// returns the user id. Returns ErrEmailTaken for a duplicate email.
func (d *DB) CreateUser(email, password string) (int64, error) {
	var exists int64
	err := d.db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&exists)
	if err == nil {
		return 0, ErrEmailTaken
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	res, err := d.db.Exec(
		"INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)",
		email, string(hash), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}
	return res.LastInsertId()
}

// Authenticate verifies the credentials and returns the user id.
// Returns ErrInvalidCredentials for an unknown email or wrong password.
func (d *DB) Authenticate(email, password string) (int64, error) {
	var id int64
	var hash string
	err := d.db.QueryRow("SELECT id, password_hash FROM users WHERE email = ?", email).
		Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}

// CreateSession issues a new session token for the user.
func (d *DB) CreateSession(userID int64) (string, error) {
	token := uuid.NewString()
	_, err := d.db.Exec(
		"INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

// UserForToken resolves a session token to a user id, or ErrNotFound.
func (d *DB) UserForToken(token string) (int64, error) {
	var id int64
	err := d.db.QueryRow("SELECT user_id FROM sessions WHERE token = ?", token).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("looking up session: %w", err)
	}
	return id, nil
}

// DeleteSession invalidates a session token.
func (d *DB) DeleteSession(token string) error {
	if _, err := d.db.Exec("DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// AddToLibrary saves a paper into a user's library. Saving the same
// paper twice is a no-op.
func (d *DB) AddToLibrary(userID, paperID int64) error {
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO library (user_id, paper_id, saved_at) VALUES (?, ?, ?)",
		userID, paperID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("adding to library: %w", err)
	}
	return nil
}

// RemoveFromLibrary drops a paper from a user's library.
func (d *DB) RemoveFromLibrary(userID, paperID int64) error {
	if _, err := d.db.Exec(
		"DELETE FROM library WHERE user_id = ? AND paper_id = ?", userID, paperID); err != nil {
		return fmt.Errorf("removing from library: %w", err)
	}
	return nil
}

// LibraryIDs returns the paper ids saved by a user, most recent first.
func (d *DB) LibraryIDs(userID int64) ([]int64, error) {
	rows, err := d.db.Query(
		"SELECT paper_id FROM library WHERE user_id = ? ORDER BY saved_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning library row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HypeEntry is a paper ranked by how many libraries hold it.
type HypeEntry struct {
	PaperID int64 `json:"paper_id"`
	Saves   int   `json:"saves"`
}

// TopSaved returns papers ordered by save count descending, then by
// ascending paper id for a stable order.
func (d *DB) TopSaved(limit int) ([]HypeEntry, error) {
	rows, err := d.db.Query(`
		SELECT paper_id, COUNT(*) AS saves FROM library
		GROUP BY paper_id
		ORDER BY saves DESC, paper_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading top saved: %w", err)
	}
	defer rows.Close()

	var entries []HypeEntry
	for rows.Next() {
		var e HypeEntry
		if err := rows.Scan(&e.PaperID, &e.Saves); err != nil {
			return nil, fmt.Errorf("scanning hype row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
