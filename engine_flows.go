package goCred

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/jwt"
)

func (e *Engine) buildFlowDeps() flows.Deps {
	return flows.Deps{
		Signup:  e.signupFlowDeps(),
		Signin:  e.signinFlowDeps(),
		Resolve: e.resolveFlowDeps(),
		Logout:  e.logoutFlowDeps(),
		Profile: e.profileFlowDeps(),
	}
}

func (e *Engine) signupFlowDeps() flows.SignupDeps {
	deps := flows.SignupDeps{
		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,
		Metrics: flows.SignupMetrics{
			Success:   int(MetricSignupSuccess),
			Duplicate: int(MetricSignupDuplicate),
			Invalid:   int(MetricSignupInvalid),
		},
		Events: flows.SignupEvents{
			Success:   auditEventSignupSuccess,
			Failure:   auditEventSignupFailure,
			Duplicate: auditEventSignupDuplicate,
		},
		Errors: flows.SignupErrors{
			EngineNotReady: ErrEngineNotReady,
			DuplicateEmail: ErrDuplicateEmail,
			UserNotFound:   ErrUserNotFound,
			Field:          fieldError,
		},
	}
	if e.users != nil {
		deps.FindUserByEmail = e.findUserByEmail
		deps.CreateUser = func(ctx context.Context, u flows.NewUserRecord) (string, error) {
			return e.users.CreateUser(ctx, NewUser{
				Email:        u.Email,
				Name:         u.Name,
				PasswordHash: u.PasswordHash,
				Salt:         u.Salt,
			})
		}
	}
	if e.hasher != nil {
		deps.HashPassword = e.hasher.Hash
	}
	return deps
}

func (e *Engine) signinFlowDeps() flows.SigninDeps {
	deps := flows.SigninDeps{
		Opaque:           e.config.Mode == ModeOpaque,
		CollapseFailures: e.config.Security.CollapseSigninFailures,
		SessionTTL:       e.config.Session.TTL,
		Now:              e.now,
		DummySalt:        e.dummySalt,
		DummyDigest:      e.dummyDigest,
		MetricInc:        e.flowMetricInc,
		EmitAudit:        e.emitAudit,
		Metrics: flows.SigninMetrics{
			Success:          int(MetricSigninSuccess),
			UserNotFound:     int(MetricSigninUserNotFound),
			PasswordMismatch: int(MetricSigninPasswordMismatch),
			SessionCreated:   int(MetricSessionCreated),
			TokenIssued:      int(MetricTokenIssued),
		},
		Events: flows.SigninEvents{
			Success: auditEventSigninSuccess,
			Failure: auditEventSigninFailure,
		},
		Errors: flows.SigninErrors{
			EngineNotReady:     ErrEngineNotReady,
			UserNotFound:       ErrUserNotFound,
			InvalidCredentials: ErrInvalidCredentials,
			Field:              fieldError,
		},
	}
	if e.users != nil {
		deps.FindUserByEmail = e.findUserByEmail
	}
	if e.hasher != nil {
		deps.VerifyPassword = e.hasher.Verify
	}
	if e.sessions != nil {
		deps.CreateSession = e.sessions.CreateSession
	}
	if e.jwtManager != nil {
		deps.IssueToken = func(u flows.UserRecord) (string, time.Time, error) {
			return e.jwtManager.Issue(jwt.Subject{
				ID:    u.ID,
				Email: u.Email,
				Name:  u.Name,
			})
		}
	}
	return deps
}

func (e *Engine) resolveFlowDeps() flows.ResolveDeps {
	deps := flows.ResolveDeps{
		Opaque:         e.config.Mode == ModeOpaque,
		Now:            e.now,
		MetricInc:      e.flowMetricInc,
		ObserveLatency: e.flowObserveLatency,
		EmitAudit:      e.emitAudit,
		Metrics: flows.ResolveMetrics{
			Success:         int(MetricResolveSuccess),
			Failure:         int(MetricResolveFailure),
			OrphanedSession: int(MetricResolveOrphanedSession),
			Latency:         int(MetricResolveLatency),
		},
		Events: flows.ResolveEvents{
			OrphanedSession: auditEventSessionOrphaned,
		},
		Errors: flows.ResolveErrors{
			EngineNotReady:  ErrEngineNotReady,
			Unauthenticated: ErrUnauthenticated,
			SessionNotFound: ErrSessionNotFound,
			UserNotFound:    ErrUserNotFound,
		},
	}
	if e.jwtManager != nil {
		deps.ParseToken = e.parseToken
	}
	if e.sessions != nil {
		deps.FindSession = e.sessions.FindSession
		deps.DeleteSession = e.sessions.DeleteSession
	}
	if e.users != nil {
		deps.FindUserByID = e.findUserByID
	}
	return deps
}

func (e *Engine) logoutFlowDeps() flows.LogoutDeps {
	deps := flows.LogoutDeps{
		Opaque:    e.config.Mode == ModeOpaque,
		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,
		Metrics: flows.LogoutMetrics{
			Logout: int(MetricLogout),
		},
		Events: flows.LogoutEvents{
			Logout: auditEventLogout,
		},
		Errors: flows.LogoutErrors{
			EngineNotReady:  ErrEngineNotReady,
			Unauthenticated: ErrUnauthenticated,
		},
	}
	if e.jwtManager != nil {
		deps.ParseToken = e.parseToken
	}
	if e.sessions != nil {
		deps.DeleteSession = e.sessions.DeleteSession
	}
	return deps
}

func (e *Engine) profileFlowDeps() flows.ProfileDeps {
	deps := flows.ProfileDeps{
		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,
		Metrics: flows.ProfileMetrics{
			Update: int(MetricProfileUpdate),
		},
		Events: flows.ProfileEvents{
			Update: auditEventProfileUpdate,
		},
		Errors: flows.ProfileErrors{
			EngineNotReady:  ErrEngineNotReady,
			Unauthenticated: ErrUnauthenticated,
			Field:           fieldError,
		},
	}
	if e.users != nil {
		deps.UpdateUserName = e.users.UpdateUserName
	}
	return deps
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) flowObserveLatency(id int, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricID(id), d)
}

func (e *Engine) findUserByEmail(ctx context.Context, email string) (flows.UserRecord, error) {
	u, err := e.users.FindUserByEmail(ctx, email)
	if err != nil {
		return flows.UserRecord{}, err
	}
	if u == nil {
		return flows.UserRecord{}, ErrUserNotFound
	}
	return toUserRecord(u), nil
}

func (e *Engine) findUserByID(ctx context.Context, userID string) (flows.UserRecord, error) {
	u, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return flows.UserRecord{}, err
	}
	if u == nil {
		return flows.UserRecord{}, ErrUserNotFound
	}
	return toUserRecord(u), nil
}

// parseToken maps jwt package failures onto the root token sentinels. The
// flows wrap the result in ErrUnauthenticated.
func (e *Engine) parseToken(token string) (flows.ResolvedIdentity, error) {
	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return flows.ResolvedIdentity{}, ErrTokenExpired
		}
		return flows.ResolvedIdentity{}, ErrTokenInvalid
	}

	id := flows.ResolvedIdentity{
		UserID: claims.ID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func toUserRecord(u *User) flows.UserRecord {
	return flows.UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Salt:         u.Salt,
	}
}

func fieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
