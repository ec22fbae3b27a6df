// Package internal contains helpers private to goCred, currently the
// session id generator.
//
// # Sub-packages
//
//   - appconfig: environment-driven server configuration
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//   - httpjson: JSON response and error rendering shared by middleware and httpapi
//   - logging: slog setup and oops-aware error logging
//   - observability: metrics and health probe server used by cmd/gocred
//
// # What this package must NOT do
//
//   - Export types that appear in the public goCred API.
//   - Be imported by any package outside the goCred module.
package internal
