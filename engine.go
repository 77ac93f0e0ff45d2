package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/admin"
	"github.com/MrEthical07/authcore/csrf"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/internal/metrics"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/storage/userstore"
	"github.com/MrEthical07/authcore/validate"
)

// Engine is the authentication core. All methods are safe for concurrent use.
type Engine struct {
	config   Config
	db       Database
	sessions session.Store
	hasher   *password.Hasher
	tickets  *session.TicketSigner
	csrf     *csrf.Manager
	gate     *admin.Gate
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Close flushes pending audit events and stops the dispatcher. The database
// and session store belong to the caller and stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) logError(ctx context.Context, msg string, err error) {
	logging.LogError(ctx, e.logger, msg, err)
}

// Login authenticates username and password. Unknown users, inactive
// accounts and wrong passwords return ErrNotFound, ErrInactiveAccount and
// ErrInvalidCredentials respectively; show them to users only through
// PublicMessage, which does not tell them apart.
func (e *Engine) Login(ctx context.Context, username, pass string) (*LoginResult, error) {
	if e == nil || e.db == nil {
		return nil, ErrEngineNotReady
	}
	users := userstore.New(e.db)

	res, err := flows.RunLogin(ctx, username, pass, flows.LoginDeps{
		RehashOnLogin:        e.config.Password.RehashOnLogin,
		Now:                  e.now,
		ValidUsername:        validate.Username,
		ValidPassword:        validate.Password,
		FindCredentials:      users.FindCredentials,
		UpdatePasswordHash:   users.UpdatePasswordHash,
		VerifyPassword:       e.hasher.Verify,
		BurnPassword:         e.hasher.Burn,
		PasswordNeedsUpgrade: e.hasher.NeedsUpgrade,
		HashPassword:         e.hasher.Hash,
		RecordOutcome:        e.metrics.Login,
		EmitAudit:            e.flowAudit,
		LogError:             e.logError,
		Events: flows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
			Rehash:       auditEventPasswordRehash,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			Validation:         ErrValidation,
			NotFound:           ErrNotFound,
			InactiveAccount:    ErrInactiveAccount,
			InvalidCredentials: ErrInvalidCredentials,
			Database:           ErrDatabase,
			Internal:           ErrInternal,
		},
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: res.UserID, Username: res.Username}, nil
}

// Register validates the input and creates the user and its salt in one
// transaction.
func (e *Engine) Register(ctx context.Context, username, email, pass string) (*RegisterResult, error) {
	if e == nil || e.db == nil {
		return nil, ErrEngineNotReady
	}

	res, err := flows.RunRegister(ctx, flows.RegisterRequest{
		Username: username,
		Email:    email,
		Password: pass,
	}, flows.RegisterDeps{
		DB:            e.db,
		ValidUsername: validate.Username,
		ValidEmail:    validate.Email,
		ValidPassword: validate.Password,
		GenerateSalt:  password.GenerateSalt,
		HashPassword:  e.hasher.Hash,
		RecordOutcome: e.metrics.Register,
		EmitAudit:     e.flowAudit,
		LogError:      e.logError,
		Events: flows.RegisterEvents{
			RegisterSuccess: auditEventRegisterSuccess,
			RegisterFailure: auditEventRegisterFailure,
		},
		Errors: flows.RegisterErrors{
			EngineNotReady:    ErrEngineNotReady,
			Validation:        ErrValidation,
			DuplicateUsername: ErrDuplicateUsername,
			DuplicateEmail:    ErrDuplicateEmail,
			Database:          ErrDatabase,
		},
	})
	if err != nil {
		return nil, err
	}
	return &RegisterResult{UserID: res.UserID}, nil
}

// IsAdmin reports whether userID holds an admin record. The caller must take
// userID from a resolved session, never from request input.
func (e *Engine) IsAdmin(ctx context.Context, userID int64) (AdminStatus, error) {
	if e == nil || e.gate == nil {
		return AdminStatus{}, ErrEngineNotReady
	}

	st, err := e.gate.IsAdmin(ctx, userID)
	if err != nil {
		e.metrics.AdminCheck("error")
		e.logError(ctx, "admin lookup failed", err)
		return AdminStatus{}, ErrDatabase
	}
	if st.IsAdmin {
		e.metrics.AdminCheck("admin")
	} else {
		e.metrics.AdminCheck("not_admin")
	}
	return st, nil
}

// AddAdmin grants role to userID. Unknown role names grant the lowest role,
// editor. The granted role is returned.
func (e *Engine) AddAdmin(ctx context.Context, userID int64, role string) (admin.Role, error) {
	if e == nil || e.gate == nil {
		return "", ErrEngineNotReady
	}

	granted, err := e.gate.AddAdmin(ctx, userID, role)
	if err != nil {
		err = e.mapAdminError(ctx, "admin grant failed", err)
		e.emitAudit(ctx, auditEventAdminGrant, false, userID, "", "", err, nil)
		return "", err
	}

	e.metrics.AdminChange("grant")
	e.emitAudit(ctx, auditEventAdminGrant, true, userID, "", "", nil, func() map[string]string {
		return map[string]string{"role": granted.String()}
	})
	return granted, nil
}

// RemoveAdmin revokes any admin grant of userID. Revoking a user without a
// grant succeeds.
func (e *Engine) RemoveAdmin(ctx context.Context, userID int64) error {
	if e == nil || e.gate == nil {
		return ErrEngineNotReady
	}

	if err := e.gate.RemoveAdmin(ctx, userID); err != nil {
		err = e.mapAdminError(ctx, "admin revoke failed", err)
		e.emitAudit(ctx, auditEventAdminRevoke, false, userID, "", "", err, nil)
		return err
	}

	e.metrics.AdminChange("revoke")
	e.emitAudit(ctx, auditEventAdminRevoke, true, userID, "", "", nil, nil)
	return nil
}

func (e *Engine) mapAdminError(ctx context.Context, msg string, err error) error {
	if errors.Is(err, admin.ErrUserNotFound) {
		return ErrNotFound
	}
	e.logError(ctx, msg, err)
	return ErrDatabase
}

// IssueCSRFToken creates a single-use token for form in the session,
// replacing any earlier token for the same form.
func (e *Engine) IssueCSRFToken(ctx context.Context, sessionID, form string) (string, error) {
	if e == nil || e.csrf == nil {
		return "", ErrEngineNotReady
	}

	token, err := e.csrf.Issue(ctx, sessionID, form)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, csrf.ErrInvalidForm):
		return "", ErrValidation
	case errors.Is(err, session.ErrNotFound):
		return "", ErrSessionNotFound
	default:
		e.logError(ctx, "csrf issue failed", err)
		return "", ErrInternal
	}
}

// ValidateCSRFToken consumes token for form. It returns nil exactly once per
// issued token; every rejection wraps both ErrCSRF and the csrf package
// reason. ttl <= 0 uses the configured CSRF TTL.
func (e *Engine) ValidateCSRFToken(ctx context.Context, sessionID, token, form string, ttl time.Duration) error {
	if e == nil || e.csrf == nil {
		return ErrEngineNotReady
	}
	if ttl <= 0 {
		ttl = e.config.CSRF.TTL
	}

	err := e.csrf.Validate(ctx, sessionID, token, form, ttl)
	switch {
	case err == nil:
		e.metrics.CSRF("ok")
		return nil
	case errors.Is(err, csrf.ErrMissing),
		errors.Is(err, csrf.ErrExpired),
		errors.Is(err, csrf.ErrMismatch),
		errors.Is(err, csrf.ErrInvalidForm):
		e.metrics.CSRF(csrfOutcome(err))
		e.emitAudit(ctx, auditEventCSRFRejected, false, 0, "", sessionID, ErrCSRF, func() map[string]string {
			return map[string]string{"form": form, "reason": csrfOutcome(err)}
		})
		return fmt.Errorf("%w: %w", ErrCSRF, err)
	default:
		e.metrics.CSRF("error")
		e.logError(ctx, "csrf validate failed", err)
		return ErrInternal
	}
}

func csrfOutcome(err error) string {
	switch {
	case errors.Is(err, csrf.ErrMissing):
		return "missing"
	case errors.Is(err, csrf.ErrExpired):
		return "expired"
	case errors.Is(err, csrf.ErrMismatch):
		return "mismatch"
	default:
		return "invalid_form"
	}
}
