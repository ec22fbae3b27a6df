package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	goCred "github.com/MrEthical07/goCred"
)

// poolIface is the subset of *pgxpool.Pool the store needs; pgxmock
// implements it for tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store implements goCred.CredentialStore on PostgreSQL.
type Store struct {
	pool       poolIface
	sessionTTL time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithSessionTTL sets the lifetime of new sessions. Zero, the default, keeps
// sessions until they are deleted.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.sessionTTL = ttl
	}
}

// Open connects a pgx pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return New(pool, opts...), nil
}

// New wraps an existing pool.
func New(pool poolIface, opts ...Option) *Store {
	s := &Store{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

const selectUser = `SELECT id::text, email, name, password_hash, salt, created_at FROM users`

// FindUserByEmail looks a user up by exact email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*goCred.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
	if err != nil {
		if isNotFound(err) {
			return nil, oops.Code("USER_NOT_FOUND").With("operation", "find user by email").Wrap(goCred.ErrUserNotFound)
		}
		return nil, unavailable("find user by email", err)
	}
	return u, nil
}

// FindUserByID looks a user up by id. Ids that are not UUIDs are not found.
func (s *Store) FindUserByID(ctx context.Context, userID string) (*goCred.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, userID))
	if err != nil {
		if isNotFound(err) {
			return nil, oops.Code("USER_NOT_FOUND").With("operation", "find user by id").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
		}
		return nil, unavailable("find user by id", err)
	}
	return u, nil
}

// CreateUser inserts a user. The unique constraint on email decides
// duplicates, so concurrent signups for one email yield exactly one row.
func (s *Store) CreateUser(ctx context.Context, user goCred.NewUser) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, salt)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text`,
		user.Name, user.Email, user.PasswordHash, user.Salt).Scan(&id)
	if err != nil {
		if pgCode(err) == pgerrcode.UniqueViolation {
			return "", oops.Code("DUPLICATE_EMAIL").With("operation", "create user").Wrap(goCred.ErrDuplicateEmail)
		}
		return "", unavailable("create user", err)
	}
	return id, nil
}

// UpdateUserName changes only the name column.
func (s *Store) UpdateUserName(ctx context.Context, userID, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET name = $2 WHERE id = $1`, userID, name)
	if err != nil {
		if isNotFound(err) {
			return oops.Code("USER_NOT_FOUND").With("operation", "update user name").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
		}
		return unavailable("update user name", err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("operation", "update user name").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
	}
	return nil
}

// CreateSession inserts a session row; its id is a database-generated UUID.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, error) {
	var expiresAt *time.Time
	if s.sessionTTL > 0 {
		t := time.Now().Add(s.sessionTTL).UTC()
		expiresAt = &t
	}

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (user_id, expires_at)
		 VALUES ($1, $2)
		 RETURNING id::text`,
		userID, expiresAt).Scan(&id)
	if err != nil {
		switch pgCode(err) {
		case pgerrcode.ForeignKeyViolation, pgerrcode.InvalidTextRepresentation:
			return "", oops.Code("USER_NOT_FOUND").With("operation", "create session").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
		}
		return "", unavailable("create session", err)
	}
	return id, nil
}

// FindSession returns the user id owning an unexpired session.
func (s *Store) FindSession(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id::text FROM sessions
		 WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`,
		sessionID).Scan(&userID)
	if err != nil {
		if isNotFound(err) {
			return "", oops.Code("SESSION_NOT_FOUND").With("operation", "find session").Wrap(goCred.ErrSessionNotFound)
		}
		return "", unavailable("find session", err)
	}
	return userID, nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil && !isNotFound(err) {
		return unavailable("delete session", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and reports how
// many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, unavailable("delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*goCred.User, error) {
	var u goCred.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Salt, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// isNotFound treats a malformed UUID like a missing row: callers pass
// untrusted ids straight from requests.
func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgerrcode.InvalidTextRepresentation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func unavailable(operation string, err error) error {
	return oops.Code("DB_QUERY_FAILED").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", goCred.ErrStoreUnavailable, err))
}

var _ goCred.CredentialStore = (*Store)(nil)
