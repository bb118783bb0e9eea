package chrome

import (
	"errors"
	"fmt"
	"net/http"
)

// PermissionError is returned when the requester lacks a permission action.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s privileges are required to perform this operation", e.Action)
}

// HTTPError carries an explicit status code.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// notFounder is satisfied by domain errors that mean "no such resource".
type notFounder interface {
	NotFound() bool
}

// StatusCode maps an error to the HTTP status the host responds with.
func StatusCode(err error) int {
	var permErr *PermissionError
	if errors.As(err, &permErr) {
		return http.StatusForbidden
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	var nf notFounder
	if errors.As(err, &nf) && nf.NotFound() {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
