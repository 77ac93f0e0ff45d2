package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/admin"
	"github.com/MrEthical07/authcore/csrf"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/internal/metrics"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/storage"
)

// Database is the storage capability the Engine consumes: parameterized
// queries plus transactions. *sql.DB and *storage.DB satisfy it.
type Database interface {
	storage.DBTX
	storage.TxBeginner
}

// Builder assembles an Engine. A Builder can be used once.
type Builder struct {
	config     Config
	db         Database
	redis      redis.UniversalClient
	sessions   session.Store
	logger     *slog.Logger
	auditSink  AuditSink
	registerer prometheus.Registerer
	now        func() time.Time

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithDB sets the user database.
func (b *Builder) WithDB(db Database) *Builder {
	b.db = db
	return b
}

// WithRedis stores sessions in Redis. Ignored when WithSessionStore is used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore sets an explicit session store, such as
// session.NewMemoryStore for single-process deployments and tests.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessions = store
	return b
}

// WithLogger sets the logger for server-side error detail. Audit events are
// written to this logger as well, next to any sink set with WithAuditSink.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. With a logger configured, events
// also reach the logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsRegisterer registers the Prometheus collectors on reg. Without
// it metrics are disabled.
func (b *Builder) WithMetricsRegisterer(reg prometheus.Registerer) *Builder {
	b.registerer = reg
	return b
}

// WithClock replaces time.Now for CSRF ages and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.db == nil {
		return nil, errors.New("database required")
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		sessions = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	hasher, err := password.NewHasher(cfg.Password.hasherConfig())
	if err != nil {
		return nil, err
	}

	tickets, err := session.NewTicketSigner(session.TicketConfig{
		Key:    []byte(cfg.Session.TicketKey),
		Issuer: cfg.Session.TicketIssuer,
		MaxAge: cfg.Session.TicketMaxAge,
		Leeway: cfg.Session.TicketLeeway,
	})
	if err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := metrics.New(b.registerer)

	sink := b.auditSink
	if b.logger != nil {
		if sink == nil {
			sink = audit.NewSlogSink(b.logger)
		} else {
			sink = audit.MultiSink{sink, audit.NewSlogSink(b.logger)}
		}
	}
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled && sink != nil,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop:     m.AuditDropped,
		OnPanic: func(v any) {
			logger.Error("audit sink panicked", "panic", v)
		},
	}, sink)

	b.built = true

	return &Engine{
		config:   cfg,
		db:       b.db,
		sessions: sessions,
		hasher:   hasher,
		tickets:  tickets,
		csrf:     csrf.NewManager(sessions, csrf.WithClock(now)),
		gate:     admin.NewGate(b.db),
		audit:    dispatcher,
		metrics:  m,
		logger:   logger,
		now:      now,
	}, nil
}
