package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/storage/userstore"
)

// StartSession creates a server-side session for an authenticated user and
// returns the signed ticket to hand to the client. Call it only with a
// result returned by Login.
func (e *Engine) StartSession(ctx context.Context, user *LoginResult) (string, *Session, error) {
	if e == nil || e.sessions == nil {
		return "", nil, ErrEngineNotReady
	}
	if user == nil || user.UserID <= 0 {
		return "", nil, ErrValidation
	}

	sess := &session.Session{
		ID:        session.NewID(),
		UserID:    user.UserID,
		Username:  user.Username,
		CreatedAt: e.now().UTC(),
	}
	if err := e.sessions.Create(ctx, sess, e.config.Session.IdleTTL); err != nil {
		e.logError(ctx, "session create failed", err)
		return "", nil, ErrInternal
	}

	ticket, err := e.tickets.Sign(sess)
	if err != nil {
		_ = e.sessions.Delete(ctx, sess.ID)
		e.logError(ctx, "session ticket signing failed", err)
		return "", nil, ErrInternal
	}

	e.metrics.SessionCreated()
	e.emitAudit(ctx, auditEventSessionStart, true, sess.UserID, sess.Username, sess.ID, nil, nil)
	return ticket, sess, nil
}

// ResolveSession verifies ticket, loads its session and slides the idle
// expiry. The ticket and the stored session must name the same user, and
// that user must still exist and be active; otherwise the session is deleted.
func (e *Engine) ResolveSession(ctx context.Context, ticket string) (*Session, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tickets.Parse(ticket)
	if err != nil {
		return nil, ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrUnauthorized
	}

	sess, err := e.sessions.Get(ctx, claims.SessionID(), e.config.Session.IdleTTL)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, ErrSessionNotFound
	case errors.Is(err, session.ErrCorrupt):
		_ = e.sessions.Delete(ctx, claims.SessionID())
		e.logError(ctx, "corrupt session removed", err)
		return nil, ErrSessionNotFound
	case err != nil:
		e.logError(ctx, "session lookup failed", err)
		return nil, ErrInternal
	}

	if sess.UserID != userID {
		e.emitAudit(ctx, auditEventSessionMismatch, false, userID, "", sess.ID, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	active, err := userstore.New(e.db).IsActive(ctx, sess.UserID)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		active = false
	case err != nil:
		e.logError(ctx, "session user lookup failed", err)
		return nil, ErrDatabase
	}
	if !active {
		if err := e.sessions.Delete(ctx, sess.ID); err != nil {
			e.logError(ctx, "inactive user session delete failed", err)
		} else {
			e.metrics.SessionDeleted()
		}
		e.emitAudit(ctx, auditEventSessionInactive, false, sess.UserID, sess.Username, sess.ID, ErrInactiveAccount, nil)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Logout deletes the session. Logging out an unknown session succeeds.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return ErrValidation
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		e.logError(ctx, "session delete failed", err)
		return ErrInternal
	}

	e.metrics.SessionDeleted()
	e.emitAudit(ctx, auditEventLogout, true, 0, "", sessionID, nil, nil)
	return nil
}
