package goCred

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/jwt"
	"github.com/MrEthical07/goCred/password"
	"github.com/redis/go-redis/v9"
)

// dummyPassword seeds the digest that unknown-email signins are verified
// against.
const dummyPassword = "goCred-signin-dummy-password"

// Builder assembles an [Engine]. Configure it once, call Build, and discard it.
type Builder struct {
	config Config

	users    UserStore
	sessions SessionStore
	redis    redis.UniversalClient

	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the backend for user records. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithSessionStore sets the backend for opaque sessions. It takes precedence
// over [Builder.WithRedis].
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithCredentialStore uses one backend for both users and sessions.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.users = store
	b.sessions = store
	return b
}

// WithRedis keeps opaque sessions in Redis under Config.Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the logger used for internal failures. Output is discarded
// by default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. Events are only dispatched when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Resolve latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source for token claims, session expiry and
// audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder
// can be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engine := &Engine{
		config: cfg,
		users:  b.users,
		logger: logger,
		now:    now,
	}

	// -------- SESSIONS / TOKENS --------
	switch cfg.Mode {
	case ModeOpaque:
		sessions := b.sessions
		if sessions == nil && b.redis != nil {
			sessions = NewRedisSessionStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.TTL)
		}
		if sessions == nil {
			if cs, ok := b.users.(SessionStore); ok {
				sessions = cs
			}
		}
		if sessions == nil {
			return nil, errors.New("opaque mode requires a session store")
		}
		engine.sessions = sessions
	case ModeStateless:
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.Token.TTL,
			SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
			PrivateKey:    tokenSigningKey(cfg.Token),
			PublicKey:     cloneBytes(cfg.Token.PublicKey),
			Issuer:        cfg.Token.Issuer,
			Audience:      cfg.Token.Audience,
			Leeway:        cfg.Token.Leeway,
			Now:           now,
		})
		if err != nil {
			return nil, err
		}
		engine.jwtManager = jm
		// Logout in stateless mode needs no store, but keep one if given.
		engine.sessions = b.sessions
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.New(password.Config{
		Algorithm:   cfg.Password.Algorithm,
		SaltBytes:   cfg.Password.SaltBytes,
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	engine.dummyDigest, engine.dummySalt, err = hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	// -------- AUDIT / METRICS --------
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Now:        now,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.flowDeps = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}

func tokenSigningKey(cfg TokenConfig) []byte {
	if cfg.SigningMethod == string(jwt.MethodEd25519) {
		return cloneBytes(cfg.PrivateKey)
	}
	return cloneBytes(cfg.Secret)
}
