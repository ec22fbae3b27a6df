package goCred

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/session"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore is a [SessionStore] backed by Redis. Session ids are
// 16 random bytes in base64url; each id maps to a versioned binary record
// under prefix:<id>, and prefix:u:<userID> indexes a user's sessions.
type RedisSessionStore struct {
	store *session.Store
}

// NewRedisSessionStore returns a SessionStore that keeps sessions in client.
// A zero ttl keeps sessions until they are deleted.
func NewRedisSessionStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		store: session.NewStore(client, prefix, ttl),
	}
}

func (s *RedisSessionStore) CreateSession(ctx context.Context, userID string) (string, error) {
	sess, err := s.store.Create(ctx, userID)
	if err != nil {
		return "", mapSessionError(err)
	}
	return sess.SessionID, nil
}

func (s *RedisSessionStore) FindSession(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", mapSessionError(err)
	}
	return sess.UserID, nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	return mapSessionError(s.store.Delete(ctx, sessionID))
}

// ActiveSessions lists the session ids currently indexed for userID.
func (s *RedisSessionStore) ActiveSessions(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.store.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return ids, nil
}

// Ping reports the Redis round-trip time.
func (s *RedisSessionStore) Ping(ctx context.Context) (time.Duration, error) {
	d, err := s.store.Ping(ctx)
	return d, mapSessionError(err)
}

func mapSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrRedisUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	default:
		return err
	}
}
