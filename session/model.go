package session

import (
	"strconv"
	"time"
)

// Reserved field names. CSRF records live under FieldCSRFPrefix + form name.
const (
	FieldUserID     = "uid"
	FieldUsername   = "username"
	FieldCreatedAt  = "created_at"
	FieldCSRFPrefix = "csrf:"
)

// Session is the identity part of a stored session.
type Session struct {
	ID        string
	UserID    int64
	Username  string
	CreatedAt time.Time
}

func (s *Session) fields() map[string]string {
	return map[string]string{
		FieldUserID:    strconv.FormatInt(s.UserID, 10),
		FieldUsername:  s.Username,
		FieldCreatedAt: strconv.FormatInt(s.CreatedAt.UnixNano(), 10),
	}
}

func fromFields(id string, fields map[string]string) (*Session, error) {
	raw, ok := fields[FieldUserID]
	if !ok {
		return nil, ErrNotFound
	}
	uid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ErrCorrupt
	}

	sess := &Session{
		ID:       id,
		UserID:   uid,
		Username: fields[FieldUsername],
	}
	if ns, err := strconv.ParseInt(fields[FieldCreatedAt], 10, 64); err == nil {
		sess.CreatedAt = time.Unix(0, ns)
	}
	return sess, nil
}
