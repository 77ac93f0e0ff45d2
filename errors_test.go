package authcore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/authcore/csrf"
)

func TestPublicMessageAndClassify(t *testing.T) {
	tests := []struct {
		err     error
		message string
		code    string
	}{
		{err: nil, message: "", code: ""},
		{err: ErrValidation, message: "invalid input", code: "validation"},
		{err: ErrDuplicateUsername, message: "username is already taken", code: "duplicate_username"},
		{err: ErrDuplicateEmail, message: "email is already registered", code: "duplicate_email"},
		{err: ErrNotFound, message: genericAuthFailure, code: "not_found"},
		{err: ErrInvalidCredentials, message: genericAuthFailure, code: "invalid_credentials"},
		{err: ErrInactiveAccount, message: genericAuthFailure, code: "inactive"},
		{err: fmt.Errorf("%w: %w", ErrCSRF, csrf.ErrExpired), message: "invalid or expired form token", code: "csrf"},
		{err: ErrSessionNotFound, message: "authentication required", code: "session_not_found"},
		{err: ErrUnauthorized, message: "authentication required", code: "unauthorized"},
		{err: ErrForbidden, message: "forbidden", code: "forbidden"},
		{err: ErrDatabase, message: "internal error", code: "database"},
		{err: ErrInternal, message: "internal error", code: "internal"},
		{err: errors.New("pq: relation \"users\" does not exist"), message: "internal error", code: "internal"},
	}

	for _, tt := range tests {
		if got := PublicMessage(tt.err); got != tt.message {
			t.Fatalf("PublicMessage(%v) = %q, want %q", tt.err, got, tt.message)
		}
		if got := Classify(tt.err); got != tt.code {
			t.Fatalf("Classify(%v) = %q, want %q", tt.err, got, tt.code)
		}
	}
}
