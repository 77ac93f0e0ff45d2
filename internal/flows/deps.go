package flows

import (
	"context"
	"time"
)

// Outcome labels shared by the flows for metrics and audit reasons.
const (
	OutcomeSuccess            = "success"
	OutcomeValidation         = "validation"
	OutcomeNotFound           = "not_found"
	OutcomeInactive           = "inactive"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDuplicateUsername  = "duplicate_username"
	OutcomeDuplicateEmail     = "duplicate_email"
	OutcomeDatabase           = "database"
	OutcomeInternal           = "internal"
)

// AuditFunc records one audit event. userID is zero when the user is unknown.
type AuditFunc func(ctx context.Context, event string, success bool, userID int64, username string, err error, metadata func() map[string]string)

// ErrorLogFunc logs an infrastructure failure server-side.
type ErrorLogFunc func(ctx context.Context, msg string, err error)

func noopAudit(context.Context, string, bool, int64, string, error, func() map[string]string) {}

func noopErrorLog(context.Context, string, error) {}

func reason(r string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": r}
	}
}

func sinceOrZero(now func() time.Time, start time.Time) time.Duration {
	d := now().Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
