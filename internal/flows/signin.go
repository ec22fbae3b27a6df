package flows

import (
	"context"
	"errors"
	"strings"
	"time"
)

// SigninResult is the flow-local credential shape. SessionID is set only in
// opaque mode.
type SigninResult struct {
	Credential string
	UserID     string
	SessionID  string
	ExpiresAt  time.Time
}

type SigninMetrics struct {
	Success          int
	UserNotFound     int
	PasswordMismatch int
	SessionCreated   int
	TokenIssued      int
}

type SigninEvents struct {
	Success string
	Failure string
}

type SigninErrors struct {
	EngineNotReady     error
	UserNotFound       error
	InvalidCredentials error
	Field              func(field, reason string) error
}

type SigninDeps struct {
	Opaque           bool
	CollapseFailures bool
	SessionTTL       time.Duration
	Now              func() time.Time

	FindUserByEmail func(context.Context, string) (UserRecord, error)
	VerifyPassword  func(plaintext, salt, digest string) bool
	// DummySalt and DummyDigest are verified against when the email is
	// unknown so that both failure paths cost one hash.
	DummySalt   string
	DummyDigest string

	CreateSession func(context.Context, string) (string, error)
	IssueToken    func(UserRecord) (string, time.Time, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics SigninMetrics
	Events  SigninEvents
	Errors  SigninErrors
}

// RunSignin looks up the user, verifies the password and issues a credential
// for the configured mode. Signin never writes to the user record.
func RunSignin(ctx context.Context, email, password string, deps SigninDeps) (*SigninResult, error) {
	normalizeSigninDeps(&deps)

	if deps.FindUserByEmail == nil || deps.VerifyPassword == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if deps.Opaque && deps.CreateSession == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if !deps.Opaque && deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, deps.Errors.Field("email", "is required")
	}
	if password == "" {
		return nil, deps.Errors.Field("password", "is required")
	}

	user, err := deps.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, deps.Errors.UserNotFound) {
			deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
				return map[string]string{
					"reason": "lookup_failed",
				}
			})
			return nil, err
		}

		deps.VerifyPassword(password, deps.DummySalt, deps.DummyDigest)
		deps.MetricInc(deps.Metrics.UserNotFound)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", deps.Errors.UserNotFound, func() map[string]string {
			return map[string]string{
				"reason": "user_not_found",
			}
		})
		if deps.CollapseFailures {
			return nil, deps.Errors.InvalidCredentials
		}
		return nil, deps.Errors.UserNotFound
	}

	if !deps.VerifyPassword(password, user.Salt, user.PasswordHash) {
		deps.MetricInc(deps.Metrics.PasswordMismatch)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, "", deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	result := &SigninResult{UserID: user.ID}
	if deps.Opaque {
		sessionID, err := deps.CreateSession(ctx, user.ID)
		if err != nil {
			deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, "", err, func() map[string]string {
				return map[string]string{
					"reason": "session_create_failed",
				}
			})
			return nil, err
		}
		deps.MetricInc(deps.Metrics.SessionCreated)
		result.Credential = sessionID
		result.SessionID = sessionID
		if deps.SessionTTL > 0 {
			result.ExpiresAt = deps.Now().Add(deps.SessionTTL)
		}
	} else {
		token, expiresAt, err := deps.IssueToken(user)
		if err != nil {
			deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, "", err, func() map[string]string {
				return map[string]string{
					"reason": "token_issue_failed",
				}
			})
			return nil, err
		}
		deps.MetricInc(deps.Metrics.TokenIssued)
		result.Credential = token
		result.ExpiresAt = expiresAt
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, result.SessionID, nil, nil)

	return result, nil
}

func normalizeSigninDeps(deps *SigninDeps) {
	deps.Now = nowOrDefault(deps.Now)
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
}
