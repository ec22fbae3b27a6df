// Package goCred issues credentials on signin and resolves them back into an
// identity on every request.
//
// Passwords are stored as a salted digest (HMAC-SHA256 with a 256 byte salt
// by default, Argon2id optionally). A successful signin yields one of two
// credential kinds, chosen once through [Config].Mode:
//
//   - [ModeStateless]: a signed token carrying id, email and name. Resolving
//     it needs no store access; it cannot be revoked before it expires.
//   - [ModeOpaque]: a random session id looked up in a [SessionStore] on
//     every request and deleted on logout.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// goCred is the public surface. It exposes [Engine], [Builder], [Config], the
// store interfaces and value types. Flow orchestration, audit dispatch and
// session encoding live under internal/ and session/. Store implementations
// live in store/memory and store/postgres; HTTP concerns live in middleware
// and httpapi.
//
// # What this package must NOT do
//
//   - Log or echo passwords, salts, digests, signing secrets or credentials.
//   - Perform I/O outside of Engine methods.
//   - Decide authorization: an [Identity] says who the caller is, not what
//     they may do.
//   - Import any sub-package that re-imports goCred (no import cycles).
package goCred
