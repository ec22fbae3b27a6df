package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ResolvedIdentity is the flow-local identity shape.
type ResolvedIdentity struct {
	UserID    string
	Email     string
	Name      string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type ResolveMetrics struct {
	Success         int
	Failure         int
	OrphanedSession int
	Latency         int
}

type ResolveEvents struct {
	OrphanedSession string
}

type ResolveErrors struct {
	EngineNotReady  error
	Unauthenticated error
	SessionNotFound error
	UserNotFound    error
}

type ResolveDeps struct {
	Opaque bool
	Now    func() time.Time

	// ParseToken verifies a stateless token and returns its claims.
	ParseToken func(string) (ResolvedIdentity, error)

	FindSession   func(context.Context, string) (string, error)
	FindUserByID  func(context.Context, string) (UserRecord, error)
	DeleteSession func(context.Context, string) error

	MetricInc      func(int)
	ObserveLatency func(int, time.Duration)
	EmitAudit      AuditFunc

	Metrics ResolveMetrics
	Events  ResolveEvents
	Errors  ResolveErrors
}

// RunResolve turns a bearer credential into an identity. Every rejection
// wraps Errors.Unauthenticated; store outages are returned unwrapped.
func RunResolve(ctx context.Context, credential string, deps ResolveDeps) (*ResolvedIdentity, error) {
	normalizeResolveDeps(&deps)

	start := deps.Now()
	defer func() {
		deps.ObserveLatency(deps.Metrics.Latency, deps.Now().Sub(start))
	}()

	id, err := resolve(ctx, credential, deps)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		return nil, err
	}
	deps.MetricInc(deps.Metrics.Success)
	return id, nil
}

func resolve(ctx context.Context, credential string, deps ResolveDeps) (*ResolvedIdentity, error) {
	if credential == "" {
		return nil, deps.Errors.Unauthenticated
	}

	if !deps.Opaque {
		if deps.ParseToken == nil {
			return nil, deps.Errors.EngineNotReady
		}
		id, err := deps.ParseToken(credential)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", deps.Errors.Unauthenticated, err)
		}
		return &id, nil
	}

	if deps.FindSession == nil || deps.FindUserByID == nil {
		return nil, deps.Errors.EngineNotReady
	}

	userID, err := deps.FindSession(ctx, credential)
	if err != nil {
		if errors.Is(err, deps.Errors.SessionNotFound) {
			return nil, fmt.Errorf("%w: %w", deps.Errors.Unauthenticated, err)
		}
		return nil, err
	}

	user, err := deps.FindUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, deps.Errors.UserNotFound) {
			return nil, err
		}
		// The user is gone; the session must not keep resolving.
		deps.MetricInc(deps.Metrics.OrphanedSession)
		if deps.DeleteSession != nil {
			_ = deps.DeleteSession(ctx, credential)
		}
		deps.EmitAudit(ctx, deps.Events.OrphanedSession, false, userID, credential, err, nil)
		return nil, fmt.Errorf("%w: %w", deps.Errors.Unauthenticated, err)
	}

	return &ResolvedIdentity{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		SessionID: credential,
	}, nil
}

func normalizeResolveDeps(deps *ResolveDeps) {
	deps.Now = nowOrDefault(deps.Now)
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.ObserveLatency == nil {
		deps.ObserveLatency = func(int, time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
}
