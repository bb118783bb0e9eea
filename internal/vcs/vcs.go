// Package vcs reads changesets and source trees from a version control
// repository.
package vcs

import (
	"context"
	"fmt"
	"time"
)

// Repository is a read-only view of a version control repository.
type Repository interface {
	Name() string
	// Resolve expands rev to a full revision id.
	Resolve(ctx context.Context, rev string) (string, error)
	Changeset(ctx context.Context, rev string) (*Changeset, error)
	// Node returns the file or directory at path in rev. An empty path is
	// the repository root.
	Node(ctx context.Context, path, rev string) (*Node, error)
}

// Changeset is a single commit and its changes.
type Changeset struct {
	Rev     string
	Author  string
	Date    time.Time
	Message string
	Files   []FileDiff
}

// FileDiff is the change to one file in a changeset.
type FileDiff struct {
	Path   string
	Status string // A, M or D
	Diff   string
}

// Node is a file or directory at a revision.
type Node struct {
	Path    string
	Rev     string
	Dir     bool
	Entries []Entry  // directories only
	Lines   []string // files only
}

// Entry is an item in a directory listing.
type Entry struct {
	Name string
	Path string
	Dir  bool
}

// NotFoundError reports a missing revision or path.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no such %s", e.What)
}

// NotFound marks the error for a 404 response.
func (e *NotFoundError) NotFound() bool { return true }
