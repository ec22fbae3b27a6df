// Package password implements salted password hashing and verification.
//
// # Algorithms
//
//   - [HMAC] (default): salt is 256 random bytes, hex encoded; digest is
//     hex(HMAC-SHA256(key = salt hex string, msg = password)).
//   - [Argon2]: Argon2id with fixed cost parameters; salt and digest are hex.
//
// Both compare digests in constant time.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Which fields are required
// at signup is decided by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive digests.
//   - Import any other goCred package.
//   - Log plaintext passwords, salts or digests.
package password
