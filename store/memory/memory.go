// Package memory is an in-process [goCred.CredentialStore] for tests, demos
// and single-instance deployments. Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal"
)

type session struct {
	userID    string
	createdAt time.Time
	expiresAt time.Time
}

// Store keeps users and sessions in maps guarded by one RWMutex. When a
// session TTL is set, a sweeper goroutine removes expired sessions until
// Close is called.
type Store struct {
	mu       sync.RWMutex
	users    map[string]goCred.User
	byEmail  map[string]string
	sessions map[string]session

	sessionTTL    time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithSessionTTL expires sessions ttl after creation. Zero keeps them until
// deleted.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.sessionTTL = ttl
	}
}

// WithSweepInterval sets how often expired sessions are purged. It defaults
// to the session TTL, capped at one minute.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepInterval = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty Store. Call Close to stop the sweeper.
func New(opts ...Option) *Store {
	s := &Store{
		users:    make(map[string]goCred.User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]session),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sessionTTL <= 0 {
		close(s.done)
		return s
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = min(s.sessionTTL, time.Minute)
	}
	go s.sweep()
	return s
}

func (s *Store) sweep() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.DeleteExpiredSessions()
		case <-s.stop:
			return
		}
	}
}

// Close stops the sweeper and waits for it to exit. It is safe to call more
// than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// FindUserByEmail returns a copy of the user registered under email.
func (s *Store) FindUserByEmail(_ context.Context, email string) (*goCred.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("operation", "find user by email").Wrap(goCred.ErrUserNotFound)
	}
	u := s.users[id]
	return &u, nil
}

// FindUserByID returns a copy of the user with userID.
func (s *Store) FindUserByID(_ context.Context, userID string) (*goCred.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("operation", "find user by id").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
	}
	return &u, nil
}

// CreateUser checks and inserts under the write lock, so of two concurrent
// signups for one email exactly one succeeds.
func (s *Store) CreateUser(_ context.Context, nu goCred.NewUser) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[nu.Email]; exists {
		return "", oops.Code("DUPLICATE_EMAIL").With("operation", "create user").Wrap(goCred.ErrDuplicateEmail)
	}

	id := uuid.NewString()
	s.users[id] = goCred.User{
		ID:           id,
		Email:        nu.Email,
		Name:         nu.Name,
		PasswordHash: nu.PasswordHash,
		Salt:         nu.Salt,
		CreatedAt:    s.now().UTC(),
	}
	s.byEmail[nu.Email] = id
	return id, nil
}

func (s *Store) UpdateUserName(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("operation", "update user name").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
	}
	u.Name = name
	s.users[userID] = u
	return nil
}

// DeleteUser removes a user and every session that belongs to it.
func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("operation", "delete user").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
	}
	delete(s.byEmail, u.Email)
	delete(s.users, userID)
	for id, sess := range s.sessions {
		if sess.userID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// CreateSession issues a random 128-bit session id for userID.
func (s *Store) CreateSession(_ context.Context, userID string) (string, error) {
	sid, err := internal.NewSessionIDString()
	if err != nil {
		return "", oops.Code("SESSION_ID_FAILED").With("operation", "create session").Wrap(err)
	}

	now := s.now()
	sess := session{userID: userID, createdAt: now}
	if s.sessionTTL > 0 {
		sess.expiresAt = now.Add(s.sessionTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return "", oops.Code("USER_NOT_FOUND").With("operation", "create session").With("user_id", userID).Wrap(goCred.ErrUserNotFound)
	}
	s.sessions[sid] = sess
	return sid, nil
}

// FindSession returns the owner of an unexpired session.
func (s *Store) FindSession(_ context.Context, sessionID string) (string, error) {
	if internal.CheckSessionID(sessionID) != nil {
		return "", oops.Code("SESSION_NOT_FOUND").With("operation", "find session").Wrap(goCred.ErrSessionNotFound)
	}

	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(sess) {
		return "", oops.Code("SESSION_NOT_FOUND").With("operation", "find session").Wrap(goCred.ErrSessionNotFound)
	}
	return sess.userID, nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// DeleteExpiredSessions purges sessions past their expiry and reports how
// many were removed.
func (s *Store) DeleteExpiredSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// SessionCount reports the number of stored sessions, expired or not.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(sess session) bool {
	return !sess.expiresAt.IsZero() && !s.now().Before(sess.expiresAt)
}

var _ goCred.CredentialStore = (*Store)(nil)
