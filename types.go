package goCred

import "time"

// User is the persisted identity record. PasswordHash and Salt are hex
// strings produced by the configured password hasher.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// NewUser is the input to [UserStore.CreateUser]. The store assigns the id.
type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
	Salt         string
}

// Session is an opaque server-held session record. ExpiresAt is zero when
// the store applies no expiry.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SignupRequest carries the fields accepted by [Engine.Signup]. All three
// are required.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// SigninResult is returned by [Engine.Signin].
//
// Credential is the opaque session id in [ModeOpaque] and the signed token
// in [ModeStateless]. ExpiresAt is zero for opaque sessions without a TTL.
type SigninResult struct {
	Credential string
	Mode       CredentialMode
	UserID     string
	ExpiresAt  time.Time
}

// Identity is the authenticated subject resolved from a credential.
//
// In stateless mode it is built purely from token claims and may be stale
// relative to the user record. In opaque mode it reflects the user record at
// resolution time and carries the SessionID.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
