package flows

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/storage"
	"github.com/MrEthical07/authcore/storage/storagetest"
	"github.com/MrEthical07/authcore/storage/userstore"
	"github.com/MrEthical07/authcore/validate"
)

func registerDeps(t *testing.T, db storage.TxBeginner, rec *recorder) RegisterDeps {
	t.Helper()
	h := testHasher(t)
	return RegisterDeps{
		DB:            db,
		ValidUsername: validate.Username,
		ValidEmail:    validate.Email,
		ValidPassword: validate.Password,
		GenerateSalt:  password.GenerateSalt,
		HashPassword:  h.Hash,
		RecordOutcome: func(outcome string) { rec.outcomes = append(rec.outcomes, outcome) },
		EmitAudit:     rec.emit,
		LogError:      rec.logError,
		Events:        RegisterEvents{RegisterSuccess: "register_success", RegisterFailure: "register_failure"},
		Errors: RegisterErrors{
			EngineNotReady:    errNotReady,
			Validation:        errValidation,
			DuplicateUsername: errDupUsername,
			DuplicateEmail:    errDupEmail,
			Database:          errDatabase,
		},
	}
}

func countRows(t *testing.T, db *storage.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestRunRegisterCreatesUserAndSalt(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	var rec recorder
	deps := registerDeps(t, db, &rec)

	res, err := RunRegister(context.Background(), RegisterRequest{
		Username: "john.doe_1",
		Email:    "john@example.com",
		Password: "Password1!",
	}, deps)
	if err != nil {
		t.Fatalf("RunRegister: %v", err)
	}
	if res.UserID == 0 {
		t.Fatalf("expected user id")
	}

	creds, err := userstore.New(db).FindCredentials(context.Background(), "john.doe_1")
	if err != nil {
		t.Fatalf("FindCredentials: %v", err)
	}
	if creds.PasswordHash == "Password1!" || creds.Salt == "" || !creds.IsActive {
		t.Fatalf("unexpected stored credentials")
	}

	again, err := deps.HashPassword("Password1!", creds.Salt)
	if err != nil || again != creds.PasswordHash {
		t.Fatalf("stored hash was not derived from the stored salt")
	}
	if rec.outcomes[0] != OutcomeSuccess || rec.audits[0].event != "register_success" || rec.audits[0].userID != res.UserID {
		t.Fatalf("unexpected audit/outcome %+v %v", rec.audits, rec.outcomes)
	}
}

func TestRunRegisterDuplicates(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	var rec recorder
	deps := registerDeps(t, db, &rec)
	ctx := context.Background()

	if _, err := RunRegister(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Password1!"}, deps); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := RunRegister(ctx, RegisterRequest{Username: "alice", Email: "other@example.com", Password: "Password1!"}, deps)
	if !errors.Is(err, errDupUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	_, err = RunRegister(ctx, RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "Password1!"}, deps)
	if !errors.Is(err, errDupEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	if n := countRows(t, db, "users"); n != 1 {
		t.Fatalf("expected 1 user row, got %d", n)
	}
	if n := countRows(t, db, "user_salts"); n != 1 {
		t.Fatalf("expected 1 salt row, got %d", n)
	}
}

func TestRunRegisterValidationOrder(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "username", req: RegisterRequest{Username: "ab", Email: "bad", Password: "weak"}},
		{name: "email", req: RegisterRequest{Username: "alice", Email: "no-at-sign", Password: "weak"}},
		{name: "password", req: RegisterRequest{Username: "alice", Email: "a@example.com", Password: "password1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := storagetest.OpenSQLite(t)
			var rec recorder
			_, err := RunRegister(context.Background(), tt.req, registerDeps(t, db, &rec))
			if !errors.Is(err, errValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if n := countRows(t, db, "users"); n != 0 {
				t.Fatalf("expected no user rows, got %d", n)
			}
		})
	}
}

func TestRunRegisterSaltInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM users WHERE username").WithArgs("alice").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM users WHERE email").WithArgs("alice@example.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec("INSERT INTO user_salts").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	var rec recorder
	_, err = RunRegister(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password1!",
	}, registerDeps(t, db, &rec))
	if !errors.Is(err, errDatabase) {
		t.Fatalf("expected database error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
	if len(rec.logged) != 1 {
		t.Fatalf("expected the failure to be logged server-side")
	}
}

func TestRunRegisterConcurrentWinnerMapsToDuplicate(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: "users_username_key", want: errDupUsername},
		{constraint: "users_email_key", want: errDupEmail},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectQuery("SELECT 1 FROM users WHERE username").WillReturnError(sql.ErrNoRows)
			mock.ExpectQuery("SELECT 1 FROM users WHERE email").WillReturnError(sql.ErrNoRows)
			mock.ExpectQuery("INSERT INTO users").WillReturnError(&pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: tt.constraint,
			})
			mock.ExpectRollback()

			var rec recorder
			_, err = RunRegister(context.Background(), RegisterRequest{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "Password1!",
			}, registerDeps(t, db, &rec))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestRunRegisterTooLongPasswordIsValidation(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	var rec recorder
	deps := registerDeps(t, db, &rec)
	deps.HashPassword = func(string, string) (string, error) { return "", password.ErrTooLong }

	_, err := RunRegister(context.Background(), RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Password1!"}, deps)
	if !errors.Is(err, errValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := countRows(t, db, "users"); n != 0 {
		t.Fatalf("expected no user rows, got %d", n)
	}
}

func TestRunRegisterThenLoginAgainstSQLite(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	var rec recorder
	rdeps := registerDeps(t, db, &rec)
	ctx := context.Background()

	if _, err := RunRegister(ctx, RegisterRequest{Username: "john.doe_1", Email: "john@example.com", Password: "Password1!"}, rdeps); err != nil {
		t.Fatalf("RunRegister: %v", err)
	}

	h := testHasher(t)
	users := userstore.New(db)
	ldeps := LoginDeps{
		ValidUsername:   validate.Username,
		ValidPassword:   validate.Password,
		FindCredentials: users.FindCredentials,
		VerifyPassword:  h.Verify,
		BurnPassword:    h.Burn,
		Errors:          loginErrors(),
	}

	res, err := RunLogin(ctx, "john.doe_1", "Password1!", ldeps)
	if err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if res.Username != "john.doe_1" {
		t.Fatalf("unexpected username %q", res.Username)
	}

	// SQL metacharacters never reach the query with the real validators...
	if _, err := RunLogin(ctx, "a' OR '1'='1", "x", ldeps); !errors.Is(err, errValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// ...and are bound as a literal value when they do.
	ldeps.ValidUsername = func(string) bool { return true }
	if _, err := RunLogin(ctx, "a' OR '1'='1", "Password1!", ldeps); !errors.Is(err, errNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRunRegisterEngineNotReady(t *testing.T) {
	_, err := RunRegister(context.Background(), RegisterRequest{}, RegisterDeps{Errors: RegisterErrors{EngineNotReady: errNotReady}})
	if !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}
