// Package middleware adapts goCred credential resolution to net/http.
//
// # Handlers
//
//   - [Authenticate] reads the Authorization header, resolves a Bearer
//     credential through the Engine and stores the identity in the request
//     context. Requests without the header continue anonymously.
//   - [RequireIdentity] rejects anonymous requests with 401.
//   - [IdentityFromContext] and [CredentialFromContext] read what
//     Authenticate stored.
//
// Rejections use the JSON error body shared with httpapi:
// {"kind":"MalformedCredential"} with 400 for a non-Bearer header and
// {"kind":"Unauthenticated"} with 401 for a credential that does not resolve.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Whether a
// credential is valid is decided by Engine.Resolve alone.
//
// # What this package must NOT do
//
//   - Parse tokens or read sessions directly.
//   - Make authorization decisions beyond authenticated or anonymous.
//   - Echo the credential or the resolution failure reason to the client.
package middleware
