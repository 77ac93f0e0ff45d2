package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/storage/userstore"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	UserID   int64
	Username string
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
	Rehash       string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	Validation         error
	NotFound           error
	InactiveAccount    error
	InvalidCredentials error
	Database           error
	Internal           error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	RehashOnLogin bool

	Now func() time.Time

	ValidUsername func(string) bool
	ValidPassword func(string) bool

	FindCredentials    func(ctx context.Context, username string) (userstore.Credentials, error)
	UpdatePasswordHash func(ctx context.Context, userID int64, hash string) error

	VerifyPassword       func(password, salt, encoded string) (bool, error)
	BurnPassword         func(password string)
	PasswordNeedsUpgrade func(encoded string) (bool, error)
	HashPassword         func(password, salt string) (string, error)

	RecordOutcome func(outcome string, took time.Duration)
	EmitAudit     AuditFunc
	LogError      ErrorLogFunc

	Events LoginEvents
	Errors LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.BurnPassword == nil {
		deps.BurnPassword = func(string) {}
	}
	if deps.RecordOutcome == nil {
		deps.RecordOutcome = func(string, time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.LogError == nil {
		deps.LogError = noopErrorLog
	}
}

// RunLogin authenticates username and password.
//
// Unknown users, inactive accounts and wrong passwords return distinct
// sentinels for the caller's logs, but all three spend one key derivation so
// response timing does not reveal which case occurred.
func RunLogin(ctx context.Context, username, pass string, deps LoginDeps) (*LoginResult, error) {
	normalizeLoginDeps(&deps)
	if deps.ValidUsername == nil ||
		deps.ValidPassword == nil ||
		deps.FindCredentials == nil ||
		deps.VerifyPassword == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := deps.Now()
	fail := func(outcome string, userID int64, err error) (*LoginResult, error) {
		deps.RecordOutcome(outcome, sinceOrZero(deps.Now, start))
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, username, err, reason(outcome))
		return nil, err
	}

	if !deps.ValidUsername(username) || !deps.ValidPassword(pass) {
		return fail(OutcomeValidation, 0, deps.Errors.Validation)
	}

	creds, err := deps.FindCredentials(ctx, username)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		deps.BurnPassword(pass)
		return fail(OutcomeNotFound, 0, deps.Errors.NotFound)
	case errors.Is(err, userstore.ErrAmbiguous):
		deps.LogError(ctx, "login: duplicate username rows", err)
		return fail(OutcomeInternal, 0, deps.Errors.Internal)
	case err != nil:
		deps.LogError(ctx, "login: credential lookup failed", err)
		return fail(OutcomeDatabase, 0, deps.Errors.Database)
	}

	if !creds.IsActive {
		deps.BurnPassword(pass)
		return fail(OutcomeInactive, creds.UserID, deps.Errors.InactiveAccount)
	}

	ok, err := deps.VerifyPassword(pass, creds.Salt, creds.PasswordHash)
	if errors.Is(err, password.ErrTooLong) {
		deps.BurnPassword(pass)
		return fail(OutcomeInvalidCredentials, creds.UserID, deps.Errors.InvalidCredentials)
	}
	if err != nil {
		deps.LogError(ctx, "login: stored credential unreadable", err)
		return fail(OutcomeInternal, creds.UserID, deps.Errors.Internal)
	}
	if !ok {
		return fail(OutcomeInvalidCredentials, creds.UserID, deps.Errors.InvalidCredentials)
	}

	if deps.RehashOnLogin {
		rehash(ctx, pass, creds, deps)
	}

	deps.RecordOutcome(OutcomeSuccess, sinceOrZero(deps.Now, start))
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, creds.UserID, creds.Username, nil, nil)

	return &LoginResult{UserID: creds.UserID, Username: creds.Username}, nil
}

// rehash upgrades a hash produced with weaker parameters. Failures are logged
// and never fail the login.
func rehash(ctx context.Context, pass string, creds userstore.Credentials, deps LoginDeps) {
	if deps.PasswordNeedsUpgrade == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	needs, err := deps.PasswordNeedsUpgrade(creds.PasswordHash)
	if err != nil || !needs {
		return
	}

	upgraded, err := deps.HashPassword(pass, creds.Salt)
	if err != nil {
		deps.LogError(ctx, "login: rehash failed", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, creds.UserID, upgraded); err != nil {
		deps.LogError(ctx, "login: storing rehashed password failed", err)
		return
	}
	if deps.Events.Rehash != "" {
		deps.EmitAudit(ctx, deps.Events.Rehash, true, creds.UserID, creds.Username, nil, nil)
	}
}
