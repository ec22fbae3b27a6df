package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/internal"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned for unknown, expired or corrupt sessions.
	ErrNotFound = errors.New("session not found")
	// ErrRedisUnavailable wraps transport errors from Redis.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Reads the blob to learn the owning user so the index entry goes with it.
const deleteSessionScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local user_len = string.byte(data, 2)
if user_len and #data >= 2 + user_len then
  local user_id = string.sub(data, 3, 2 + user_len)
  redis.call("SREM", ARGV[2] .. user_id, ARGV[1])
end
redis.call("DEL", KEYS[1])
return 1
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed opaque session store. Each session lives at
// prefix:<id> with the configured TTL; prefix:u:<userID> indexes a user's
// session ids.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a session [Store]. A zero ttl keeps sessions until they
// are deleted.
func NewStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) userPrefix() string {
	return s.prefix + ":u:"
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix() + userID
}

// Create generates a fresh session id for userID and persists it.
func (s *Store) Create(ctx context.Context, userID string) (*Session, error) {
	sid, err := internal.NewSessionIDString()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		SessionID: sid,
		UserID:    userID,
		CreatedAt: now.Unix(),
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl).Unix()
	}

	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists sess and adds it to the user index in one transaction.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	sessionKey := s.key(sess.SessionID)
	userKey := s.userKey(sess.UserID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey, data, s.ttl)
		pipe.SAdd(ctx, userKey, sess.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get loads a session. It returns [ErrNotFound] when the key is missing, the
// blob does not decode or the recorded expiry has passed.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	if internal.CheckSessionID(sessionID) != nil {
		return nil, ErrNotFound
	}

	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	sess.SessionID = sessionID

	if sess.ExpiresAt != 0 && sess.ExpiresAt <= s.now().Unix() {
		if err := s.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return sess, nil
}

// Delete removes a session and its index entry. Deleting a missing session
// is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(sessionID)}, sessionID, s.userPrefix()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ActiveSessionIDs lists the ids indexed for userID. Entries may outlive
// their sessions when Redis expires the session key first.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// Ping measures a Redis round trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
