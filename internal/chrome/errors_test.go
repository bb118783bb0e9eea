package chrome

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type missing struct{}

func (missing) Error() string  { return "missing" }
func (missing) NotFound() bool { return true }

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"permission", &PermissionError{Action: PermAdmin}, http.StatusForbidden},
		{"wrapped permission", fmt.Errorf("deleting: %w", &PermissionError{Action: PermAdmin}), http.StatusForbidden},
		{"http error", &HTTPError{Status: http.StatusMethodNotAllowed}, http.StatusMethodNotAllowed},
		{"not found", missing{}, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", missing{}), http.StatusNotFound},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPermissionErrorMessage(t *testing.T) {
	err := &PermissionError{Action: "TICKET_ADMIN"}
	if got, want := err.Error(), "TICKET_ADMIN privileges are required to perform this operation"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
