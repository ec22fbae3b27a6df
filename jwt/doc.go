// Package jwt issues and verifies the self-contained identity tokens used in
// stateless credential mode.
//
// Tokens carry id, email and name plus iat and exp. Verification pins the
// algorithm to the configured method, requires exp and iat, rejects an iat
// in the future and needs no I/O.
package jwt
