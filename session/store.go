package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the session does not exist or has expired.
	ErrNotFound = errors.New("session: not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("session: store unavailable")
	// ErrConflict is returned when an atomic update kept losing to concurrent
	// writers and gave up.
	ErrConflict = errors.New("session: concurrent update conflict")
	// ErrCorrupt is returned when a stored session cannot be decoded.
	ErrCorrupt = errors.New("session: corrupt record")
	// ErrReservedField is returned when Update targets an identity field.
	ErrReservedField = errors.New("session: reserved field")
)

// Action tells Update what to do with the field after the callback ran.
type Action int

const (
	// Keep leaves the field untouched.
	Keep Action = iota
	// Set stores the returned value.
	Set
	// Remove deletes the field.
	Remove
)

// UpdateFunc receives the current field value (ok is false when the field is
// absent) and decides what to write. Returning an error aborts the update
// without writing.
type UpdateFunc func(value string, ok bool) (Action, string, error)

// Store persists sessions. Implementations must make Update atomic with
// respect to every other Update, Delete and Get on the same session.
type Store interface {
	// Create stores a new session that expires after ttl of inactivity.
	Create(ctx context.Context, sess *Session, ttl time.Duration) error
	// Get loads a session and, when ttl > 0, pushes its expiry to now+ttl.
	Get(ctx context.Context, id string, ttl time.Duration) (*Session, error)
	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// Update atomically reads and rewrites one field of an existing session.
	Update(ctx context.Context, id, field string, fn UpdateFunc) error
}

// NewID returns a random session id.
func NewID() string {
	return uuid.NewString()
}

func checkField(field string) error {
	switch field {
	case FieldUserID, FieldUsername, FieldCreatedAt, "":
		return ErrReservedField
	}
	return nil
}
