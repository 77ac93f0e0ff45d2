// Package csrf issues and checks per-form anti-forgery tokens bound to a
// server-side session.
//
// Tokens are single-use: a successful [Manager.Validate] removes the token in
// the same atomic session update that checked it, so a replayed token always
// fails. Expired tokens are removed when they are checked. There is no way to
// skip validation.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/session"
)

// TokenBytes is the amount of randomness in each token.
const TokenBytes = 32

var (
	// ErrMissing means no token is stored for the form, or the session is gone.
	ErrMissing = errors.New("csrf: no token for form")
	// ErrExpired means the stored token outlived its ttl; it has been removed.
	ErrExpired = errors.New("csrf: token expired")
	// ErrMismatch means the presented token differs from the stored one.
	ErrMismatch = errors.New("csrf: token mismatch")
	// ErrInvalidForm is returned for an empty form name.
	ErrInvalidForm = errors.New("csrf: invalid form name")
)

// Manager issues and validates tokens. It is safe for concurrent use; the
// session store provides the per-session serialization.
type Manager struct {
	store session.Store
	now   func() time.Time
	rand  io.Reader
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager returns a Manager storing tokens in store.
func NewManager(store session.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func fieldFor(form string) string {
	return session.FieldCSRFPrefix + form
}

// Issue generates a fresh token for form, replacing any token previously
// issued for the same form in this session, and returns it.
func (m *Manager) Issue(ctx context.Context, sessionID, form string) (string, error) {
	if form == "" {
		return "", ErrInvalidForm
	}

	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(m.rand, buf); err != nil {
		return "", fmt.Errorf("csrf: read random: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	record := encodeRecord(token, m.now())

	err := m.store.Update(ctx, sessionID, fieldFor(form), func(string, bool) (session.Action, string, error) {
		return session.Set, record, nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks token against the one stored for form. It returns nil
// exactly once per issued token. A missing session or token yields
// ErrMissing, a token older than ttl is deleted and yields ErrExpired, and a
// different token yields ErrMismatch without consuming the stored one.
// Store failures are returned as is.
func (m *Manager) Validate(ctx context.Context, sessionID, token, form string, ttl time.Duration) error {
	if form == "" {
		return ErrInvalidForm
	}
	if ttl <= 0 {
		return ErrExpired
	}

	var outcome error
	err := m.store.Update(ctx, sessionID, fieldFor(form), func(stored string, ok bool) (session.Action, string, error) {
		if !ok {
			outcome = ErrMissing
			return session.Keep, "", nil
		}

		want, issuedAt, decoded := decodeRecord(stored)
		if !decoded {
			outcome = ErrMissing
			return session.Remove, "", nil
		}

		if m.now().Sub(issuedAt) > ttl {
			outcome = ErrExpired
			return session.Remove, "", nil
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			outcome = ErrMismatch
			return session.Keep, "", nil
		}

		outcome = nil
		return session.Remove, "", nil
	})
	if errors.Is(err, session.ErrNotFound) {
		return ErrMissing
	}
	if err != nil {
		return err
	}
	return outcome
}

func encodeRecord(token string, issuedAt time.Time) string {
	return token + "|" + strconv.FormatInt(issuedAt.UnixNano(), 10)
}

func decodeRecord(record string) (string, time.Time, bool) {
	token, rawTime, ok := strings.Cut(record, "|")
	if !ok || token == "" {
		return "", time.Time{}, false
	}
	ns, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return token, time.Unix(0, ns), true
}
