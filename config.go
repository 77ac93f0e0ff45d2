package authcore

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/password"
)

// Config holds every Engine setting. Field tags let the command line tool
// load it with koanf and print it as YAML.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Password PasswordConfig `koanf:"password" yaml:"password"`
	Session  SessionConfig  `koanf:"session" yaml:"session"`
	CSRF     CSRFConfig     `koanf:"csrf" yaml:"csrf"`
	Audit    AuditConfig    `koanf:"audit" yaml:"audit"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig sets the Argon2id costs.
type PasswordConfig struct {
	Memory           uint32 `koanf:"memory" yaml:"memory"`
	Time             uint32 `koanf:"time" yaml:"time"`
	Parallelism      uint8  `koanf:"parallelism" yaml:"parallelism"`
	KeyLength        uint32 `koanf:"key_length" yaml:"key_length"`
	MaxPasswordBytes int    `koanf:"max_password_bytes" yaml:"max_password_bytes"`
	// RehashOnLogin upgrades hashes produced with weaker costs after a
	// successful login.
	RehashOnLogin bool `koanf:"rehash_on_login" yaml:"rehash_on_login"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls server-side sessions and their signed tickets.
type SessionConfig struct {
	// IdleTTL is the inactivity timeout; every resolve slides it.
	IdleTTL     time.Duration `koanf:"idle_ttl" yaml:"idle_ttl"`
	RedisPrefix string        `koanf:"redis_prefix" yaml:"redis_prefix"`
	// TicketKey is the HMAC secret for session tickets, at least 32 bytes.
	TicketKey    string        `koanf:"ticket_key" yaml:"ticket_key"`
	TicketIssuer string        `koanf:"ticket_issuer" yaml:"ticket_issuer"`
	TicketMaxAge time.Duration `koanf:"ticket_max_age" yaml:"ticket_max_age"`
	TicketLeeway time.Duration `koanf:"ticket_leeway" yaml:"ticket_leeway"`
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig controls form tokens.
type CSRFConfig struct {
	// TTL is used by ValidateCSRFToken when the caller passes ttl <= 0.
	TTL time.Duration `koanf:"ttl" yaml:"ttl"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled" yaml:"enabled"`
	BufferSize int  `koanf:"buffer_size" yaml:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full" yaml:"drop_if_full"`
}

// DefaultConfig returns the settings used when nothing is overridden. The
// ticket key is left empty and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			KeyLength:        pw.KeyLength,
			MaxPasswordBytes: pw.MaxPasswordBytes,
			RehashOnLogin:    true,
		},
		Session: SessionConfig{
			IdleTTL:      30 * time.Minute,
			RedisPrefix:  "sess",
			TicketIssuer: "authcore",
			TicketMaxAge: 12 * time.Hour,
			TicketLeeway: 5 * time.Second,
		},
		CSRF: CSRFConfig{
			TTL: time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func (c PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		KeyLength:        c.KeyLength,
		MaxPasswordBytes: c.MaxPasswordBytes,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Password costs are checked by password.NewHasher.
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}

	// Session
	if c.Session.IdleTTL <= 0 {
		return errors.New("Session IdleTTL must be > 0")
	}
	if len(c.Session.TicketKey) < 32 {
		return errors.New("Session TicketKey must be at least 32 bytes")
	}
	if c.Session.TicketMaxAge <= 0 {
		return errors.New("Session TicketMaxAge must be > 0")
	}
	if c.Session.TicketMaxAge < c.Session.IdleTTL {
		return errors.New("Session TicketMaxAge must be >= IdleTTL")
	}
	if c.Session.TicketLeeway < 0 || c.Session.TicketLeeway > 2*time.Minute {
		return errors.New("Session TicketLeeway must be between 0 and 2m")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " :") {
		return errors.New("Session RedisPrefix must not contain spaces or colons")
	}

	// CSRF
	if c.CSRF.TTL <= 0 {
		return errors.New("CSRF TTL must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Session.TicketKey != "" {
		c.Session.TicketKey = "REDACTED"
	}
	return c
}
