// Package postgres is the PostgreSQL [goCred.CredentialStore]: users and
// opaque sessions in two tables, reached through a pgx connection pool.
//
// # Architecture boundaries
//
// Every error leaving this package is a samber/oops error whose chain still
// reaches the goCred sentinels, so errors.Is(err, goCred.ErrDuplicateEmail)
// and friends work unchanged. Schema changes ship as embedded golang-migrate
// migrations applied through [Migrator].
//
// # What this package must NOT do
//
//   - Hash or verify passwords.
//   - Decide whether a signin or signup is allowed beyond the unique email
//     constraint.
//   - Log query arguments; they include password digests.
package postgres
