package goCred

import "context"

// UserStore persists user records.
//
// Implementations must enforce email uniqueness themselves (a unique
// constraint or an equivalent atomic check) and report violations as
// [ErrDuplicateEmail]. Lookups that miss return [ErrUserNotFound].
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, userID string) (*User, error)
	CreateUser(ctx context.Context, user NewUser) (string, error)
	UpdateUserName(ctx context.Context, userID, name string) error
}

// SessionStore persists opaque sessions. Session ids are generated by the
// store and must be unguessable.
//
// FindSession returns [ErrSessionNotFound] for unknown or expired ids.
// DeleteSession is idempotent.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	FindSession(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// CredentialStore is a single backend holding both users and sessions.
type CredentialStore interface {
	UserStore
	SessionStore
}
