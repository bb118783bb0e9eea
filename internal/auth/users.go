// Package auth resolves who is making a request and what they may do.
package auth

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evcraddock/code-comments/internal/chrome"
)

// User is a known user of the service.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages users in SQLite.
type UserStore struct {
	db     *sql.DB
	admins map[string]bool
}

// NewUserStore creates a user store. adminUsers are always administrators,
// whether or not they are in the users table.
func NewUserStore(db *sql.DB, adminUsers []string) *UserStore {
	admins := make(map[string]bool, len(adminUsers))
	for _, u := range adminUsers {
		if u = strings.TrimSpace(u); u != "" {
			admins[u] = true
		}
	}
	return &UserStore{db: db, admins: admins}
}

// IsAdmin checks if a username holds the administrative permission.
func (s *UserStore) IsAdmin(username string) bool {
	if username == "" || username == chrome.Anonymous {
		return false
	}
	if s.admins[username] {
		return true
	}

	var isAdmin bool
	err := s.db.QueryRow("SELECT is_admin FROM users WHERE username = ?", username).Scan(&isAdmin)
	if err != nil {
		return false
	}
	return isAdmin
}

// Permissions returns the permission actions granted to username.
func (s *UserStore) Permissions(username string) []string {
	if s.IsAdmin(username) {
		return []string{chrome.PermAdmin}
	}
	return nil
}

// Add creates a new user.
func (s *UserStore) Add(username, email string, isAdmin bool) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if username == chrome.Anonymous {
		return nil, fmt.Errorf("username %q is reserved", username)
	}

	result, err := s.db.Exec(
		"INSERT INTO users (username, email, is_admin) VALUES (?, ?, ?)",
		username, email, isAdmin,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("user already exists: %s", username)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(id)
}

// SetAdmin grants or revokes the administrative flag.
func (s *UserStore) SetAdmin(username string, isAdmin bool) error {
	result, err := s.db.Exec("UPDATE users SET is_admin = ? WHERE username = ?", isAdmin, username)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %s", username)
	}
	return nil
}

// List returns all users.
func (s *UserStore) List() ([]*User, error) {
	rows, err := s.db.Query(
		"SELECT id, username, email, is_admin, created_at FROM users ORDER BY username",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	var u User
	err := s.db.QueryRow(
		"SELECT id, username, email, is_admin, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// Delete removes a user by ID.
func (s *UserStore) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}
