package goCred

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func statelessTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeStateless
	cfg.Token.Secret = testSecret
	return cfg
}

func opaqueTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeOpaque
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newTestEngine(t *testing.T, cfg Config, store CredentialStore) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithCredentialStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// fakeStore is a map-backed CredentialStore that counts calls.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]User
	byEmail  map[string]string
	sessions map[string]string
	nextID   int
	calls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]User{},
		byEmail:  map[string]string{},
		sessions: map[string]string{},
	}
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *fakeStore) FindUserByID(_ context.Context, userID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *fakeStore) CreateUser(_ context.Context, nu NewUser) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := s.byEmail[nu.Email]; ok {
		return "", ErrDuplicateEmail
	}
	s.nextID++
	id := "u" + strconv.Itoa(s.nextID)
	s.users[id] = User{
		ID:           id,
		Email:        nu.Email,
		Name:         nu.Name,
		PasswordHash: nu.PasswordHash,
		Salt:         nu.Salt,
		CreatedAt:    time.Now(),
	}
	s.byEmail[nu.Email] = id
	return id, nil
}

func (s *fakeStore) UpdateUserName(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Name = name
	s.users[userID] = u
	return nil
}

func (s *fakeStore) CreateSession(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.nextID++
	sid := "s" + strconv.Itoa(s.nextID)
	s.sessions[sid] = userID
	return sid, nil
}

func (s *fakeStore) FindSession(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	userID, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return userID, nil
}

func (s *fakeStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	delete(s.sessions, sessionID)
	return nil
}

func (s *fakeStore) deleteUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	delete(s.byEmail, u.Email)
	delete(s.users, userID)
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var errStoreDown = errors.New("store down")

// failingStore fails every call; resolving a stateless token must never
// reach it.
type failingStore struct {
	t *testing.T
}

func (s failingStore) fail(op string) error {
	s.t.Errorf("unexpected store call: %s", op)
	return errStoreDown
}

func (s failingStore) FindUserByEmail(context.Context, string) (*User, error) {
	return nil, s.fail("FindUserByEmail")
}

func (s failingStore) FindUserByID(context.Context, string) (*User, error) {
	return nil, s.fail("FindUserByID")
}

func (s failingStore) CreateUser(context.Context, NewUser) (string, error) {
	return "", s.fail("CreateUser")
}

func (s failingStore) UpdateUserName(context.Context, string, string) error {
	return s.fail("UpdateUserName")
}

func (s failingStore) CreateSession(context.Context, string) (string, error) {
	return "", s.fail("CreateSession")
}

func (s failingStore) FindSession(context.Context, string) (string, error) {
	return "", s.fail("FindSession")
}

func (s failingStore) DeleteSession(context.Context, string) error {
	return s.fail("DeleteSession")
}

func mustSignup(t *testing.T, e *Engine, name, email, password string) string {
	t.Helper()
	id, err := e.Signup(context.Background(), SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		t.Fatalf("Signup(%s) failed: %v", email, err)
	}
	return id
}
