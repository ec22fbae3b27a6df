package goCred

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
)

func TestKindOfPrecedence(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
		msg  string
	}{
		{"nil", nil, "", ""},
		{"field", &FieldError{Field: "email", Reason: "is required"}, KindValidation, "email is required"},
		{"duplicate", oops.Code("DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail), KindDuplicateEmail, ErrDuplicateEmail.Error()},
		{"user not found", ErrUserNotFound, KindUserNotFound, ErrUserNotFound.Error()},
		{"wrong password", ErrInvalidCredentials, KindInvalidCredentials, ErrInvalidCredentials.Error()},
		{"bad scheme", ErrMalformedCredential, KindMalformedCredential, ErrMalformedCredential.Error()},
		{"orphaned session", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrUserNotFound), KindUnauthenticated, ErrUnauthenticated.Error()},
		{"unknown session", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrSessionNotFound), KindUnauthenticated, ErrUnauthenticated.Error()},
		{"expired token", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenExpired), KindUnauthenticated, "unauthenticated: expired"},
		{"bare session miss", ErrSessionNotFound, KindUnauthenticated, ErrUnauthenticated.Error()},
		{"store outage", fmt.Errorf("%w: dial tcp", ErrStoreUnavailable), KindInternal, "internal server error"},
		{"unknown", errors.New("boom"), KindInternal, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %q, want %q", got, tt.want)
			}
			if got := PublicMessage(tt.err); got != tt.msg {
				t.Fatalf("PublicMessage = %q, want %q", got, tt.msg)
			}
		})
	}
}
