package comment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("comment not found")

// NotFoundError is returned when no comment has the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("comment %s not found", e.ID)
}

// NotFound marks the error as a missing resource for the web layer.
func (e *NotFoundError) NotFound() bool { return true }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError lists the fields a create payload failed on.
type ValidationError struct {
	Fields map[string]string // json field name -> message
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, name := range sortedKeys(e.Fields) {
		msgs = append(msgs, e.Fields[name])
	}
	return "invalid comment: " + strings.Join(msgs, "; ")
}
