package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/storage"
	"github.com/MrEthical07/authcore/storage/userstore"
)

// RegisterRequest is the flow-local registration input.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// RegisterResult carries the id of the created user and nothing else.
type RegisterResult struct {
	UserID int64
}

// RegisterEvents carries audit event names used by the register flow.
type RegisterEvents struct {
	RegisterSuccess string
	RegisterFailure string
}

// RegisterErrors carries host-level sentinel errors used by the register flow.
type RegisterErrors struct {
	EngineNotReady    error
	Validation        error
	DuplicateUsername error
	DuplicateEmail    error
	Database          error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	DB storage.TxBeginner

	ValidUsername func(string) bool
	ValidEmail    func(string) bool
	ValidPassword func(string) bool

	GenerateSalt func() (string, error)
	HashPassword func(password, salt string) (string, error)

	RecordOutcome func(outcome string)
	EmitAudit     AuditFunc
	LogError      ErrorLogFunc

	Events RegisterEvents
	Errors RegisterErrors
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	if deps.RecordOutcome == nil {
		deps.RecordOutcome = func(string) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.LogError == nil {
		deps.LogError = noopErrorLog
	}
}

// RunRegister validates the request and creates the user and its salt in one
// transaction. Either both rows exist afterwards or neither does.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (*RegisterResult, error) {
	normalizeRegisterDeps(&deps)
	if deps.DB == nil ||
		deps.ValidUsername == nil ||
		deps.ValidEmail == nil ||
		deps.ValidPassword == nil ||
		deps.GenerateSalt == nil ||
		deps.HashPassword == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(outcome string, err error) (*RegisterResult, error) {
		deps.RecordOutcome(outcome)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, 0, req.Username, err, reason(outcome))
		return nil, err
	}

	switch {
	case !deps.ValidUsername(req.Username):
		return fail(OutcomeValidation, deps.Errors.Validation)
	case !deps.ValidEmail(req.Email):
		return fail(OutcomeValidation, deps.Errors.Validation)
	case !deps.ValidPassword(req.Password):
		return fail(OutcomeValidation, deps.Errors.Validation)
	}

	var userID int64
	err := storage.WithTx(ctx, deps.DB, nil, func(ctx context.Context, tx storage.DBTX) error {
		users := userstore.New(tx)

		taken, err := users.UsernameExists(ctx, req.Username)
		if err != nil {
			return err
		}
		if taken {
			return deps.Errors.DuplicateUsername
		}

		taken, err = users.EmailExists(ctx, req.Email)
		if err != nil {
			return err
		}
		if taken {
			return deps.Errors.DuplicateEmail
		}

		salt, err := deps.GenerateSalt()
		if err != nil {
			return err
		}
		hash, err := deps.HashPassword(req.Password, salt)
		if err != nil {
			return err
		}

		id, err := users.InsertUser(ctx, userstore.NewUser{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		if err := users.InsertSalt(ctx, id, salt); err != nil {
			return err
		}

		userID = id
		return nil
	})
	if err != nil {
		return fail(classifyRegisterError(ctx, err, deps))
	}

	deps.RecordOutcome(OutcomeSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, userID, req.Username, nil, nil)

	return &RegisterResult{UserID: userID}, nil
}

// classifyRegisterError maps a rolled back transaction to an outcome and host
// error. A unique violation means a concurrent registration won the race
// between the existence check and the insert.
func classifyRegisterError(ctx context.Context, err error, deps RegisterDeps) (string, error) {
	switch {
	case errors.Is(err, deps.Errors.DuplicateUsername):
		return OutcomeDuplicateUsername, deps.Errors.DuplicateUsername
	case errors.Is(err, deps.Errors.DuplicateEmail):
		return OutcomeDuplicateEmail, deps.Errors.DuplicateEmail
	case errors.Is(err, password.ErrTooLong):
		return OutcomeValidation, deps.Errors.Validation
	}

	if column, ok := storage.UniqueViolation(err); ok {
		switch column {
		case "username":
			return OutcomeDuplicateUsername, deps.Errors.DuplicateUsername
		case "email":
			return OutcomeDuplicateEmail, deps.Errors.DuplicateEmail
		}
	}

	deps.LogError(ctx, "register: transaction rolled back", err)
	return OutcomeDatabase, deps.Errors.Database
}
