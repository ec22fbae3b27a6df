package goCred

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

const (
	auditEventSignupSuccess   = "signup_success"
	auditEventSignupFailure   = "signup_failure"
	auditEventSignupDuplicate = "signup_duplicate"
	auditEventSigninSuccess   = "signin_success"
	auditEventSigninFailure   = "signin_failure"
	auditEventSessionOrphaned = "session_orphaned"
	auditEventLogout          = "logout"
	auditEventProfileUpdate   = "profile_update"
)

// AuditErrorCode is the stable error label recorded in [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit matches flows.AuditFunc. The session id is the bearer credential
// in opaque mode, so only a short fingerprint of it is recorded.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionFingerprint(sessionID),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func sessionFingerprint(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:8])
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrDuplicateEmail):
		return auditErrDuplicate
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
