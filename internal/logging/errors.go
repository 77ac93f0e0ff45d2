package logging

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and context are
// added as separate attributes; the message is never shown to end users.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil || err == nil {
		return
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			attrs = append(attrs, "context", c)
		}
		logger.ErrorContext(ctx, msg, attrs...)
		return
	}

	logger.ErrorContext(ctx, msg, "error", err)
}
