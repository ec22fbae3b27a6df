package goCred

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/internal/logging"
	"github.com/MrEthical07/goCred/jwt"
	"github.com/MrEthical07/goCred/password"
)

// Engine issues and verifies credentials. It is immutable after
// [Builder.Build] and safe for concurrent use.
type Engine struct {
	config      Config
	users       UserStore
	sessions    SessionStore
	hasher      password.Hasher
	dummySalt   string
	dummyDigest string
	jwtManager  *jwt.Manager
	audit       *audit.Dispatcher
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
	flowDeps    flows.Deps
}

// Mode reports the credential representation fixed at Build.
func (e *Engine) Mode() CredentialMode {
	return e.config.Mode
}

// Close drains the audit dispatcher. The stores are owned by the caller and
// are left open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Signup creates a user and returns its id. Name, email and password are
// required; name and email are trimmed. A taken email returns
// [ErrDuplicateEmail] whatever the password.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	userID, err := flows.RunSignup(ctx, flows.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, e.flowDeps.Signup)
	if err != nil {
		e.logInternal(ctx, "signup failed", err)
		return "", err
	}
	return userID, nil
}

// Signin verifies email and password and issues a credential for the
// configured mode.
//
// An unknown email costs one password verification like a wrong password
// does. With Security.CollapseSigninFailures both return
// [ErrInvalidCredentials]; otherwise an unknown email returns [ErrUserNotFound].
func (e *Engine) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := flows.RunSignin(ctx, email, password, e.flowDeps.Signin)
	if err != nil {
		e.logInternal(ctx, "signin failed", err)
		return nil, err
	}
	return &SigninResult{
		Credential: res.Credential,
		Mode:       e.config.Mode,
		UserID:     res.UserID,
		ExpiresAt:  res.ExpiresAt,
	}, nil
}

// Resolve turns a bearer credential into an [Identity].
//
// In stateless mode it performs no I/O. In opaque mode it reads the session
// and the user; a session whose user no longer exists is deleted. Every
// rejection satisfies errors.Is(err, ErrUnauthenticated).
func (e *Engine) Resolve(ctx context.Context, credential string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	id, err := flows.RunResolve(ctx, credential, e.flowDeps.Resolve)
	if err != nil {
		e.logInternal(ctx, "resolve failed", err)
		return nil, err
	}
	return &Identity{
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		SessionID: id.SessionID,
		IssuedAt:  id.IssuedAt,
		ExpiresAt: id.ExpiresAt,
	}, nil
}

// Logout deletes the opaque session behind credential. Stateless tokens
// cannot be revoked; the token is verified and nothing else happens.
func (e *Engine) Logout(ctx context.Context, credential string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := flows.RunLogout(ctx, credential, e.flowDeps.Logout); err != nil {
		e.logInternal(ctx, "logout failed", err)
		return err
	}
	return nil
}

// UpdateName sets a user's display name. A blank name is a validation error.
func (e *Engine) UpdateName(ctx context.Context, userID, name string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := flows.RunUpdateName(ctx, userID, name, e.flowDeps.Profile); err != nil {
		e.logInternal(ctx, "profile update failed", err)
		return err
	}
	return nil
}

// logInternal records failures the caller only sees as "internal server
// error". Credentials and passwords never reach the logger.
func (e *Engine) logInternal(ctx context.Context, msg string, err error) {
	if KindOf(err) != KindInternal {
		return
	}
	logging.LogError(ctx, e.logger, msg, err, "mode", e.config.Mode.String())
}
