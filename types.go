package authcore

import (
	"github.com/MrEthical07/authcore/admin"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/session"
)

// LoginResult identifies an authenticated user.
type LoginResult struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// RegisterResult carries the id of the new user and nothing sensitive.
type RegisterResult struct {
	UserID int64 `json:"user_id"`
}

// AdminStatus is the answer of the admin gate.
type AdminStatus = admin.Status

// Session is a resolved server-side session.
type Session = session.Session

// AuditEvent is one security-relevant outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink
