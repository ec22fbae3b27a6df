package logging

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it adds the code and context map; other errors are
// logged as their string.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	if logger == nil || err == nil {
		return
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if oc := oopsErr.Context(); len(oc) > 0 {
			attrs = append(attrs, "context", oc)
		}
		logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	logger.ErrorContext(ctx, msg, append(attrs, "error", err.Error())...)
}
