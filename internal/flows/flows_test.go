package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/storage/userstore"
	"github.com/MrEthical07/authcore/validate"
)

var (
	errNotReady     = errors.New("not ready")
	errValidation   = errors.New("validation")
	errNotFound     = errors.New("not found")
	errInactive     = errors.New("inactive")
	errInvalidCreds = errors.New("invalid credentials")
	errDatabase     = errors.New("database")
	errInternal     = errors.New("internal")
	errDupUsername  = errors.New("duplicate username")
	errDupEmail     = errors.New("duplicate email")
)

func testHasher(t testing.TB) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

type auditRecord struct {
	event    string
	success  bool
	userID   int64
	username string
	err      error
	metadata map[string]string
}

type recorder struct {
	audits   []auditRecord
	outcomes []string
	logged   []error
}

func (r *recorder) emit(_ context.Context, event string, success bool, userID int64, username string, err error, metadata func() map[string]string) {
	rec := auditRecord{event: event, success: success, userID: userID, username: username, err: err}
	if metadata != nil {
		rec.metadata = metadata()
	}
	r.audits = append(r.audits, rec)
}

func (r *recorder) logError(_ context.Context, _ string, err error) {
	r.logged = append(r.logged, err)
}

func loginErrors() LoginErrors {
	return LoginErrors{
		EngineNotReady:     errNotReady,
		Validation:         errValidation,
		NotFound:           errNotFound,
		InactiveAccount:    errInactive,
		InvalidCredentials: errInvalidCreds,
		Database:           errDatabase,
		Internal:           errInternal,
	}
}

// loginFixture wires LoginDeps to an in-memory credential map.
type loginFixture struct {
	hasher  *password.Hasher
	creds   map[string]userstore.Credentials
	lookErr error
	burns   int
	updated map[int64]string
	rec     recorder
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	f := &loginFixture{
		hasher:  testHasher(t),
		creds:   make(map[string]userstore.Credentials),
		updated: make(map[int64]string),
	}
	return f
}

func (f *loginFixture) addUser(t *testing.T, id int64, username, pass string, active bool) {
	t.Helper()
	salt, err := password.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	hash, err := f.hasher.Hash(pass, salt)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	f.creds[username] = userstore.Credentials{UserID: id, Username: username, PasswordHash: hash, Salt: salt, IsActive: active}
}

func (f *loginFixture) deps() LoginDeps {
	return LoginDeps{
		ValidUsername: validate.Username,
		ValidPassword: validate.Password,
		FindCredentials: func(_ context.Context, username string) (userstore.Credentials, error) {
			if f.lookErr != nil {
				return userstore.Credentials{}, f.lookErr
			}
			c, ok := f.creds[username]
			if !ok {
				return userstore.Credentials{}, userstore.ErrNotFound
			}
			return c, nil
		},
		UpdatePasswordHash: func(_ context.Context, userID int64, hash string) error {
			f.updated[userID] = hash
			return nil
		},
		VerifyPassword:       f.hasher.Verify,
		BurnPassword:         func(string) { f.burns++ },
		PasswordNeedsUpgrade: f.hasher.NeedsUpgrade,
		HashPassword:         f.hasher.Hash,
		RecordOutcome: func(outcome string, _ time.Duration) {
			f.rec.outcomes = append(f.rec.outcomes, outcome)
		},
		EmitAudit: f.rec.emit,
		LogError:  f.rec.logError,
		Events:    LoginEvents{LoginSuccess: "login_success", LoginFailure: "login_failure", Rehash: "password_rehash"},
		Errors:    loginErrors(),
	}
}

func TestRunLoginSuccess(t *testing.T) {
	f := newLoginFixture(t)
	f.addUser(t, 42, "john.doe_1", "Password1!", true)

	res, err := RunLogin(context.Background(), "john.doe_1", "Password1!", f.deps())
	if err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if res.UserID != 42 || res.Username != "john.doe_1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(f.rec.audits) != 1 || f.rec.audits[0].event != "login_success" || !f.rec.audits[0].success {
		t.Fatalf("unexpected audit %+v", f.rec.audits)
	}
	if f.rec.outcomes[0] != OutcomeSuccess {
		t.Fatalf("expected success outcome, got %v", f.rec.outcomes)
	}
}

func TestRunLoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		lookErr   error
		want      error
		outcome   string
		wantBurn  bool
		wantLogged bool
	}{
		{name: "invalid username", username: "ab", password: "Password1!", want: errValidation, outcome: OutcomeValidation},
		{name: "invalid password", username: "john.doe_1", password: "password1", want: errValidation, outcome: OutcomeValidation},
		{name: "unknown user", username: "nobody", password: "Password1!", want: errNotFound, outcome: OutcomeNotFound, wantBurn: true},
		{name: "inactive", username: "sleeper", password: "Password1!", want: errInactive, outcome: OutcomeInactive, wantBurn: true},
		{name: "wrong password", username: "john.doe_1", password: "Password2!", want: errInvalidCreds, outcome: OutcomeInvalidCredentials},
		{name: "ambiguous rows", username: "john.doe_1", password: "Password1!", lookErr: userstore.ErrAmbiguous, want: errInternal, outcome: OutcomeInternal, wantLogged: true},
		{name: "lookup failure", username: "john.doe_1", password: "Password1!", lookErr: errors.New("conn reset"), want: errDatabase, outcome: OutcomeDatabase, wantLogged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoginFixture(t)
			f.addUser(t, 1, "john.doe_1", "Password1!", true)
			f.addUser(t, 2, "sleeper", "Password1!", false)
			f.lookErr = tt.lookErr

			res, err := RunLogin(context.Background(), tt.username, tt.password, f.deps())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if res != nil {
				t.Fatalf("expected nil result, got %+v", res)
			}
			if (f.burns > 0) != tt.wantBurn {
				t.Fatalf("burns=%d, wantBurn=%v", f.burns, tt.wantBurn)
			}
			if (len(f.rec.logged) > 0) != tt.wantLogged {
				t.Fatalf("logged=%v, want logged=%v", f.rec.logged, tt.wantLogged)
			}
			if len(f.rec.outcomes) != 1 || f.rec.outcomes[0] != tt.outcome {
				t.Fatalf("outcomes=%v, want %s", f.rec.outcomes, tt.outcome)
			}
			if len(f.rec.audits) != 1 || f.rec.audits[0].event != "login_failure" || f.rec.audits[0].metadata["reason"] != tt.outcome {
				t.Fatalf("unexpected audit %+v", f.rec.audits)
			}
		})
	}
}

func TestRunLoginNeverAuditsPassword(t *testing.T) {
	f := newLoginFixture(t)
	f.addUser(t, 1, "john.doe_1", "Password1!", true)

	_, _ = RunLogin(context.Background(), "john.doe_1", "Wrong-pass1", f.deps())
	_, _ = RunLogin(context.Background(), "john.doe_1", "Password1!", f.deps())

	for _, a := range f.rec.audits {
		for k, v := range a.metadata {
			if v == "Wrong-pass1" || v == "Password1!" {
				t.Fatalf("password leaked in audit metadata %q", k)
			}
		}
	}
}

func TestRunLoginTooLongPassword(t *testing.T) {
	f := newLoginFixture(t)
	f.addUser(t, 1, "john.doe_1", "Password1!", true)

	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'a'
	}
	pass := "Aa1!" + string(long)

	_, err := RunLogin(context.Background(), "john.doe_1", pass, f.deps())
	if !errors.Is(err, errInvalidCreds) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRunLoginRehashesWeakHash(t *testing.T) {
	f := newLoginFixture(t)
	f.addUser(t, 7, "john.doe_1", "Password1!", true)
	old := f.creds["john.doe_1"].PasswordHash

	stronger, err := password.NewHasher(password.Config{Memory: 8 * 1024, Time: 2, Parallelism: 1, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	deps := f.deps()
	deps.RehashOnLogin = true
	deps.PasswordNeedsUpgrade = stronger.NeedsUpgrade
	deps.HashPassword = stronger.Hash

	if _, err := RunLogin(context.Background(), "john.doe_1", "Password1!", deps); err != nil {
		t.Fatalf("RunLogin: %v", err)
	}

	upgraded, ok := f.updated[7]
	if !ok || upgraded == old {
		t.Fatalf("expected rehashed password to be stored")
	}
	ok, err = stronger.Verify("Password1!", f.creds["john.doe_1"].Salt, upgraded)
	if err != nil || !ok {
		t.Fatalf("upgraded hash does not verify: ok=%v err=%v", ok, err)
	}
	if len(f.rec.audits) != 2 || f.rec.audits[0].event != "password_rehash" {
		t.Fatalf("expected rehash audit before success, got %+v", f.rec.audits)
	}
}

func TestRunLoginRehashFailureDoesNotFailLogin(t *testing.T) {
	f := newLoginFixture(t)
	f.addUser(t, 7, "john.doe_1", "Password1!", true)

	deps := f.deps()
	deps.RehashOnLogin = true
	deps.PasswordNeedsUpgrade = func(string) (bool, error) { return true, nil }
	deps.UpdatePasswordHash = func(context.Context, int64, string) error { return errors.New("read only") }

	if _, err := RunLogin(context.Background(), "john.doe_1", "Password1!", deps); err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if len(f.rec.logged) != 1 {
		t.Fatalf("expected rehash failure to be logged, got %v", f.rec.logged)
	}
}

func TestRunLoginEngineNotReady(t *testing.T) {
	_, err := RunLogin(context.Background(), "john.doe_1", "Password1!", LoginDeps{Errors: loginErrors()})
	if !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}
