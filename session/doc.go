// Package session provides Redis-backed persistence for opaque sessions.
//
// # Binary encoding
//
// Sessions are stored as a compact versioned blob (see [Encode]). Unknown
// versions are rejected on read and treated as missing.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It does NOT
// interpret tokens, look up users or decide whether a request is authenticated;
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goCred or jwt (no upward imports).
//   - Store anything secret in [Session] fields; the id is the only secret and it is the key.
package session
