package authcore

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/MrEthical07/authcore/internal/audit"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventPasswordRehash  = "password_rehash"
	auditEventRegisterSuccess = "register_success"
	auditEventRegisterFailure = "register_failure"
	auditEventAdminGrant      = "admin_grant"
	auditEventAdminRevoke     = "admin_revoke"
	auditEventCSRFRejected    = "csrf_rejected"
	auditEventSessionStart    = "session_start"
	auditEventSessionMismatch = "session_mismatch"
	auditEventSessionInactive = "session_inactive_user"
	auditEventLogout          = "logout"
)

// NewSlogAuditSink writes audit events to logger at info, warn or error
// level depending on the outcome.
func NewSlogAuditSink(logger *slog.Logger) AuditSink {
	return audit.NewSlogSink(logger)
}

// NewJSONAuditSink writes one JSON object per event to w.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	username string,
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

	event := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Username:  username,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     Classify(err),
		Metadata:  metadata,
	}
	if userID > 0 {
		event.UserID = strconv.FormatInt(userID, 10)
	}

	e.audit.Emit(ctx, event)
}

// flowAudit adapts emitAudit to flows.AuditFunc.
func (e *Engine) flowAudit(ctx context.Context, event string, success bool, userID int64, username string, err error, metadata func() map[string]string) {
	e.emitAudit(ctx, event, success, userID, username, "", err, metadata)
}
