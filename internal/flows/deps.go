package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Signup  SignupDeps
	Signin  SigninDeps
	Resolve ResolveDeps
	Logout  LogoutDeps
	Profile ProfileDeps
}

// UserRecord is the flow-local view of a stored user.
type UserRecord struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Salt         string
}

// AuditFunc emits one audit event: type, success, user id, session id,
// error and lazily built metadata.
type AuditFunc func(ctx context.Context, eventType string, success bool, userID, sessionID string, err error, metadata func() map[string]string)

func noopAudit(context.Context, string, bool, string, string, error, func() map[string]string) {}

func noopMetric(int) {}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
