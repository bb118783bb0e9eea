package comment

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const selectColumns = "SELECT id, version, text, path, revision, line, author, time FROM code_comments"

// Listener is notified about comment changes.
type Listener interface {
	CommentCreated(ctx context.Context, c *Comment)
}

// Repository provides CRUD and search operations for code comments.
type Repository struct {
	db        *sql.DB
	listeners []Listener
	now       func() time.Time
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB, listeners ...Listener) *Repository {
	return &Repository{db: db, listeners: listeners, now: time.Now}
}

// All returns every comment, oldest first.
func (r *Repository) All(ctx context.Context) ([]*Comment, error) {
	return r.query(ctx, selectColumns+" ORDER BY time ASC, id ASC")
}

// ByID returns the comment with the given id. Unknown or malformed ids
// yield a *NotFoundError.
func (r *Repository) ByID(ctx context.Context, id string) (*Comment, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, &NotFoundError{ID: id}
	}

	comments, err := r.query(ctx, selectColumns+" WHERE id = ?", n)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, &NotFoundError{ID: id}
	}
	return comments[0], nil
}

// Search returns comments matching the filter arguments, oldest first.
// See ParseFilter for the argument syntax.
func (r *Repository) Search(ctx context.Context, args url.Values) ([]*Comment, error) {
	where, values, err := ParseFilter(args)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, selectColumns+where+" ORDER BY time ASC, id ASC", values...)
}

// Create validates and stores a new comment, notifies listeners and
// returns its id.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (int64, error) {
	req.Text = strings.TrimSpace(req.Text)
	req.Author = strings.TrimSpace(req.Author)
	req.Path = strings.Trim(req.Path, "/")
	if err := req.Validate(); err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO code_comments (version, text, path, revision, line, author, time) VALUES (1, ?, ?, ?, ?, ?, ?)",
		req.Text, req.Path, req.Revision, req.Line, req.Author, r.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}

	if len(r.listeners) > 0 {
		c, err := r.ByID(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			return 0, fmt.Errorf("reading back comment: %w", err)
		}
		for _, l := range r.listeners {
			l.CommentCreated(ctx, c)
		}
	}

	return id, nil
}

// Delete removes a comment by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM code_comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{ID: strconv.FormatInt(id, 10)}
	}

	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	comments := []*Comment{}
	for rows.Next() {
		var c Comment
		var ts int64
		if err := rows.Scan(&c.ID, &c.Version, &c.Text, &c.Path, &c.Revision, &c.Line, &c.Author, &ts); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.Time = time.Unix(ts, 0).UTC()
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}
