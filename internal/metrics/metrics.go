package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authcore"

// Metrics contains the authcore collectors.
type Metrics struct {
	logins        *prometheus.CounterVec
	loginDuration prometheus.Histogram
	registrations *prometheus.CounterVec
	csrf          *prometheus.CounterVec
	adminChecks   *prometheus.CounterVec
	adminChanges  *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	auditDropped  prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg returns nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)

	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		loginDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_duration_seconds",
			Help:      "Time spent verifying login credentials",
			Buckets:   prometheus.DefBuckets,
		}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome",
		}, []string{"outcome"}),
		csrf: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csrf_validations_total",
			Help:      "CSRF token validations by outcome",
		}, []string{"outcome"}),
		adminChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_checks_total",
			Help:      "Admin authorization checks by result",
		}, []string{"result"}),
		adminChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_changes_total",
			Help:      "Admin grants and revocations",
		}, []string{"op"}),
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Session lifecycle events",
		}, []string{"event"}),
		auditDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_dropped_total",
			Help:      "Audit events dropped because the buffer was full",
		}),
	}
}

// Login records one login attempt.
func (m *Metrics) Login(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
	m.loginDuration.Observe(took.Seconds())
}

// Register records one registration attempt.
func (m *Metrics) Register(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

// CSRF records one token validation.
func (m *Metrics) CSRF(outcome string) {
	if m == nil {
		return
	}
	m.csrf.WithLabelValues(outcome).Inc()
}

// AdminCheck records an IsAdmin lookup. result is "admin", "not_admin" or "error".
func (m *Metrics) AdminCheck(result string) {
	if m == nil {
		return
	}
	m.adminChecks.WithLabelValues(result).Inc()
}

// AdminChange records a grant or revoke.
func (m *Metrics) AdminChange(op string) {
	if m == nil {
		return
	}
	m.adminChanges.WithLabelValues(op).Inc()
}

// SessionCreated increments the created counter.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("created").Inc()
}

// SessionDeleted increments the deleted counter.
func (m *Metrics) SessionDeleted() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("deleted").Inc()
}

// AuditDropped increments the dropped audit event counter.
func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}
