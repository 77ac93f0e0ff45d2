package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidTicket is returned for tickets that are malformed, expired or
// signed with another key.
var ErrInvalidTicket = errors.New("session: invalid ticket")

const minTicketKeyBytes = 32

// TicketConfig configures the HS256 ticket signer.
type TicketConfig struct {
	// Key is the HMAC secret. At least 32 bytes.
	Key []byte
	// Issuer is written to and required in the iss claim.
	Issuer string
	// MaxAge bounds the ticket lifetime independently of the session's idle
	// expiry.
	MaxAge time.Duration
	// Leeway tolerates clock skew when checking exp and iat.
	Leeway time.Duration
}

// TicketClaims is the payload of a session ticket. The session id is carried
// in the jti claim and the user id in sub.
type TicketClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the id of the session the ticket refers to.
func (c *TicketClaims) SessionID() string {
	return c.ID
}

// UserID returns the numeric user id from the sub claim.
func (c *TicketClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TicketSigner binds session ids to clients. A ticket carries no authority by
// itself; the server-side session must still exist and match.
type TicketSigner struct {
	config TicketConfig
	now    func() time.Time
}

// NewTicketSigner validates cfg and returns a signer.
func NewTicketSigner(cfg TicketConfig) (*TicketSigner, error) {
	if len(cfg.Key) < minTicketKeyBytes {
		return nil, fmt.Errorf("session: ticket key must be at least %d bytes", minTicketKeyBytes)
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("session: ticket max age must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("session: invalid ticket leeway")
	}
	return &TicketSigner{config: cfg, now: time.Now}, nil
}

// Sign issues a ticket for sess.
func (t *TicketSigner) Sign(sess *Session) (string, error) {
	now := t.now()
	claims := TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   strconv.FormatInt(sess.UserID, 10),
			Issuer:    t.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.MaxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.config.Key)
}

// Parse verifies the signature and time claims of ticket.
func (t *TicketSigner) Parse(ticket string) (*TicketClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	}
	if t.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(t.config.Leeway))
	}
	if t.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(t.config.Issuer))
	}

	claims := &TicketClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(ticket, claims, func(*jwt.Token) (any, error) {
		return t.config.Key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidTicket
	}
	if claims.ID == "" {
		return nil, ErrInvalidTicket
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}
