package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("application 42: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("duration: %w", ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("rejected -> approved: %w", ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("role check: %w", ErrUnauthorized), http.StatusForbidden},
		{fmt.Errorf("login: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("email taken: %w", ErrConflict), http.StatusConflict},
		{fmt.Errorf("completion: %w", ErrUpstream), http.StatusBadGateway},
		{fmt.Errorf("tool %q: %w", "drop_tables", ErrUnknownTool), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := Status(c.err); got != c.want {
			t.Errorf("Status(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestUnknownToolIsUpstream(t *testing.T) {
	err := fmt.Errorf("tool %q: %w", "x", ErrUnknownTool)
	if !errors.Is(err, ErrUnknownTool) {
		t.Error("Expected error to match ErrUnknownTool")
	}
	if !errors.Is(err, ErrUpstream) {
		t.Error("Expected ErrUnknownTool to be an ErrUpstream")
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Error("Expected ErrUnknownTool not to blame the request")
	}
}
