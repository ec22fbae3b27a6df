package flows

import (
	"context"
	"errors"
	"strings"
)

type ProfileMetrics struct {
	Update int
}

type ProfileEvents struct {
	Update string
}

type ProfileErrors struct {
	EngineNotReady  error
	Unauthenticated error
	Field           func(field, reason string) error
}

type ProfileDeps struct {
	UpdateUserName func(context.Context, string, string) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics ProfileMetrics
	Events  ProfileEvents
	Errors  ProfileErrors
}

// RunUpdateName sets the display name of userID. Password and salt are
// never touched.
func RunUpdateName(ctx context.Context, userID, name string, deps ProfileDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Errors.Field == nil {
		deps.Errors.Field = func(field, reason string) error {
			return errors.New(field + " " + reason)
		}
	}

	if deps.UpdateUserName == nil {
		return deps.Errors.EngineNotReady
	}
	if userID == "" {
		return deps.Errors.Unauthenticated
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return deps.Errors.Field("name", "is required")
	}

	if err := deps.UpdateUserName(ctx, userID, name); err != nil {
		deps.EmitAudit(ctx, deps.Events.Update, false, userID, "", err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.Update)
	deps.EmitAudit(ctx, deps.Events.Update, true, userID, "", nil, func() map[string]string {
		return map[string]string{
			"field": "name",
		}
	})
	return nil
}
