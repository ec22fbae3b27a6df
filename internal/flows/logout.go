package flows

import (
	"context"
	"fmt"
)

type LogoutMetrics struct {
	Logout int
}

type LogoutEvents struct {
	Logout string
}

type LogoutErrors struct {
	EngineNotReady  error
	Unauthenticated error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Opaque        bool
	ParseToken    func(string) (ResolvedIdentity, error)
	DeleteSession func(context.Context, string) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LogoutMetrics
	Events  LogoutEvents
	Errors  LogoutErrors
}

// RunLogout ends the session behind credential. Opaque sessions are deleted
// (idempotently). Stateless tokens cannot be revoked, so the token is only
// verified.
func RunLogout(ctx context.Context, credential string, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}

	if credential == "" {
		return deps.Errors.Unauthenticated
	}

	if deps.Opaque {
		if deps.DeleteSession == nil {
			return deps.Errors.EngineNotReady
		}
		if err := deps.DeleteSession(ctx, credential); err != nil {
			deps.EmitAudit(ctx, deps.Events.Logout, false, "", credential, err, nil)
			return err
		}
		deps.MetricInc(deps.Metrics.Logout)
		deps.EmitAudit(ctx, deps.Events.Logout, true, "", credential, nil, nil)
		return nil
	}

	if deps.ParseToken == nil {
		return deps.Errors.EngineNotReady
	}
	id, err := deps.ParseToken(credential)
	if err != nil {
		return fmt.Errorf("%w: %w", deps.Errors.Unauthenticated, err)
	}
	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, true, id.UserID, "", nil, func() map[string]string {
		return map[string]string{
			"mode": "stateless",
		}
	})
	return nil
}
