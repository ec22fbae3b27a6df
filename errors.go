package goCred

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks a request with missing or malformed fields.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when signup targets an email that is already registered.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the supplied password does not match.
	// With Security.CollapseSigninFailures it also covers unknown emails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a credential is missing, tampered, expired or revoked.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrMalformedCredential is returned when the Authorization header does not use the Bearer scheme.
	ErrMalformedCredential = errors.New("authorization header must use the Bearer scheme")
	// ErrSessionNotFound is returned by SessionStore implementations for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenInvalid wraps signature, algorithm and structure failures of a stateless token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired wraps expiry failures of a stateless token.
	ErrTokenExpired = errors.New("token expired")
	// ErrStoreUnavailable wraps backend failures of a credential store.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrEngineNotReady is returned when an Engine method runs without its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// FieldError describes a single invalid request field. It unwraps to
// [ErrValidation].
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Kind is the stable, caller-facing classification of an error.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindDuplicateEmail      Kind = "DuplicateEmail"
	KindUserNotFound        Kind = "UserNotFound"
	KindInvalidCredentials  Kind = "InvalidCredentials"
	KindUnauthenticated     Kind = "Unauthenticated"
	KindMalformedCredential Kind = "MalformedCredential"
	KindInternal            Kind = "Internal"
)

// KindOf classifies err. Unknown errors, including store outages, are
// [KindInternal].
//
// A rejected credential is [KindUnauthenticated] even when it wraps a lookup
// miss such as [ErrUserNotFound], so resolving a session of a deleted user
// does not reveal the deletion.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrMalformedCredential):
		return KindMalformedCredential
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired):
		return KindUnauthenticated
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	default:
		return KindInternal
	}
}

// PublicMessage returns a message that is safe to show to the caller.
// Internal errors never leak their cause.
func PublicMessage(err error) string {
	var fieldErr *FieldError
	switch KindOf(err) {
	case "":
		return ""
	case KindValidation:
		if errors.As(err, &fieldErr) {
			return fieldErr.Error()
		}
		return ErrValidation.Error()
	case KindDuplicateEmail:
		return ErrDuplicateEmail.Error()
	case KindUserNotFound:
		return ErrUserNotFound.Error()
	case KindInvalidCredentials:
		return ErrInvalidCredentials.Error()
	case KindMalformedCredential:
		return ErrMalformedCredential.Error()
	case KindUnauthenticated:
		if errors.Is(err, ErrTokenExpired) {
			return "unauthenticated: " + strings.TrimPrefix(ErrTokenExpired.Error(), "token ")
		}
		return ErrUnauthenticated.Error()
	default:
		return "internal server error"
	}
}
