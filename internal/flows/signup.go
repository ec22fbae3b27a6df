package flows

import (
	"context"
	"errors"
	"strings"
)

type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

type NewUserRecord struct {
	Email        string
	Name         string
	PasswordHash string
	Salt         string
}

type SignupMetrics struct {
	Success   int
	Duplicate int
	Invalid   int
}

type SignupEvents struct {
	Success   string
	Failure   string
	Duplicate string
}

type SignupErrors struct {
	EngineNotReady error
	DuplicateEmail error
	UserNotFound   error
	// Field builds the validation error for a missing field.
	Field func(field, reason string) error
}

type SignupDeps struct {
	FindUserByEmail func(context.Context, string) (UserRecord, error)
	HashPassword    func(string) (string, string, error)
	CreateUser      func(context.Context, NewUserRecord) (string, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics SignupMetrics
	Events  SignupEvents
	Errors  SignupErrors
}

// RunSignup validates req, hashes the password with a fresh salt and creates
// the user. Email uniqueness is settled by CreateUser; the lookup beforehand
// only avoids hashing for an email that is already taken.
func RunSignup(ctx context.Context, req SignupRequest, deps SignupDeps) (string, error) {
	normalizeSignupDeps(&deps)

	if deps.HashPassword == nil || deps.CreateUser == nil {
		return "", deps.Errors.EngineNotReady
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	var invalid error
	switch {
	case name == "":
		invalid = deps.Errors.Field("name", "is required")
	case email == "":
		invalid = deps.Errors.Field("email", "is required")
	case req.Password == "":
		invalid = deps.Errors.Field("password", "is required")
	}
	if invalid != nil {
		deps.MetricInc(deps.Metrics.Invalid)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", invalid, func() map[string]string {
			return map[string]string{
				"reason": "invalid_request",
			}
		})
		return "", invalid
	}

	if deps.FindUserByEmail != nil {
		_, err := deps.FindUserByEmail(ctx, email)
		switch {
		case err == nil:
			return "", signupDuplicate(ctx, deps)
		case !errors.Is(err, deps.Errors.UserNotFound):
			deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
				return map[string]string{
					"reason": "lookup_failed",
				}
			})
			return "", err
		}
	}

	digest, salt, err := deps.HashPassword(req.Password)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failed",
			}
		})
		return "", err
	}

	userID, err := deps.CreateUser(ctx, NewUserRecord{
		Email:        email,
		Name:         name,
		PasswordHash: digest,
		Salt:         salt,
	})
	if err != nil {
		if errors.Is(err, deps.Errors.DuplicateEmail) {
			return "", signupDuplicate(ctx, deps)
		}
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_create_failed",
			}
		})
		return "", err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, userID, "", nil, nil)

	return userID, nil
}

func signupDuplicate(ctx context.Context, deps SignupDeps) error {
	deps.MetricInc(deps.Metrics.Duplicate)
	deps.EmitAudit(ctx, deps.Events.Duplicate, false, "", "", deps.Errors.DuplicateEmail, nil)
	return deps.Errors.DuplicateEmail
}

func normalizeSignupDeps(deps *SignupDeps) {
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
