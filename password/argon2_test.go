package password

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(fastConfig())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func mustSalt(t *testing.T) string {
	t.Helper()
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}
	return salt
}

func TestGenerateSalt(t *testing.T) {
	a := mustSalt(t)
	b := mustSalt(t)

	raw, err := hex.DecodeString(a)
	if err != nil {
		t.Fatalf("salt is not hex: %v", err)
	}
	if len(raw) != SaltBytes {
		t.Fatalf("salt length = %d, want %d", len(raw), SaltBytes)
	}
	if a == b {
		t.Fatal("expected two generated salts to differ")
	}
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)
	salt := mustSalt(t)

	hash, err := h.Hash("Password1!", salt)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("Password1!", salt, hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h := newTestHasher(t)
	salt := mustSalt(t)

	hash, err := h.Hash("Password1!", salt)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	for _, candidate := range []string{"Password1?", "password1!", "Password1! ", ""} {
		ok, err := h.Verify(candidate, salt, hash)
		if err != nil {
			t.Fatalf("Verify(%q) error: %v", candidate, err)
		}
		if ok {
			t.Fatalf("expected Verify(%q) to fail", candidate)
		}
	}
}

func TestVerifyRejectsForeignSalt(t *testing.T) {
	h := newTestHasher(t)
	salt := mustSalt(t)

	hash, err := h.Hash("Password1!", salt)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify("Password1!", mustSalt(t), hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected verification with another user's salt to fail")
	}
}

func TestSamePasswordDifferentSalts(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("Password1!", mustSalt(t))
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := h.Hash("Password1!", mustSalt(t))
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected different salts to produce different hashes")
	}
	if first[strings.LastIndex(first, "$"):] == second[strings.LastIndex(second, "$"):] {
		t.Fatal("expected different digests for different salts")
	}
}

func TestHashIsDeterministicForSameSalt(t *testing.T) {
	h := newTestHasher(t)
	salt := mustSalt(t)

	first, err := h.Hash("Password1!", salt)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := h.Hash("Password1!", salt)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first != second {
		t.Fatal("expected identical output for identical password and salt")
	}
}

func TestHashRejectsBadSalt(t *testing.T) {
	h := newTestHasher(t)

	for _, salt := range []string{"", "zz", hex.EncodeToString(make([]byte, 16))} {
		if _, err := h.Hash("Password1!", salt); !errors.Is(err, ErrMalformedSalt) {
			t.Fatalf("Hash with salt %q: expected ErrMalformedSalt, got %v", salt, err)
		}
	}
}

func TestHashEmptyPassword(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash("", mustSalt(t)); err == nil {
		t.Fatal("expected empty password hash to fail")
	}
}

func TestMaxPasswordBytes(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	h, err := NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	salt := mustSalt(t)

	if _, err := h.Hash(strings.Repeat("a", 65), salt); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := h.Hash(exact, salt)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}

	if _, err := h.Verify(strings.Repeat("c", 65), salt, hash); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected Verify to reject long password, got %v", err)
	}
}

func TestDefaultMaxPasswordBytesApplied(t *testing.T) {
	h := newTestHasher(t)
	salt := mustSalt(t)

	if _, err := h.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1), salt); err == nil {
		t.Fatalf("expected password > %d bytes to be rejected", DefaultMaxPasswordBytes)
	}
	if _, err := h.Hash(strings.Repeat("e", DefaultMaxPasswordBytes), salt); err != nil {
		t.Fatalf("expected password of exactly %d bytes to be accepted: %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	old, err := NewHasher(fastConfig())
	if err != nil {
		t.Fatalf("NewHasher(old) error: %v", err)
	}
	hash, err := old.Hash("Password1!", mustSalt(t))
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cfg := fastConfig()
	cfg.Time = 2
	stronger, err := NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher(new) error: %v", err)
	}

	needsUpgrade, err := stronger.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	needsUpgrade, err = old.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)
	salt := mustSalt(t)

	hash, err := h.Hash("Password1!", salt)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := []string{
		"not-a-phc-hash",
		strings.Replace(hash, "$v=19$", "$v=18$", 1),
		strings.Replace(hash, "argon2id", "argon2i", 1),
		strings.Replace(hash, "m=8192", "m=1", 1),
		strings.Replace(hash, ",p=1", "", 1),
	}
	for _, encoded := range cases {
		if _, err := h.Verify("Password1!", salt, encoded); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("Verify(%q): expected ErrMalformedHash, got %v", encoded, err)
		}
	}
}

func TestNewHasherRejectsWeakConfig(t *testing.T) {
	cases := []Config{
		{Memory: 1024, Time: 1, Parallelism: 1, KeyLength: 32},
		{Memory: 8192, Time: 0, Parallelism: 1, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 0, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 1, KeyLength: 8},
		{Memory: 8192, Time: 1, Parallelism: 1, KeyLength: 32, MaxPasswordBytes: -1},
	}
	for i, cfg := range cases {
		if _, err := NewHasher(cfg); err == nil {
			t.Fatalf("case %d: expected config to be rejected", i)
		}
	}
}
