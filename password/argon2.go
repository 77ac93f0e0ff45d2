package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"

	// SaltBytes is the number of random bytes in a generated per-user salt.
	SaltBytes = 32
	// DefaultMaxPasswordBytes bounds the key derivation input when
	// Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrMalformedHash is returned when a stored hash is not a valid argon2id PHC string.
	ErrMalformedHash = errors.New("password: malformed hash")
	// ErrMalformedSalt is returned when a stored salt is not valid hex of the expected size.
	ErrMalformedSalt = errors.New("password: malformed salt")
	// ErrTooLong is returned when a password exceeds Config.MaxPasswordBytes.
	ErrTooLong = errors.New("password: too long")
)

// Config holds the Argon2id cost parameters. The salt is supplied by the
// caller per user and is not part of Config.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32

	// MaxPasswordBytes caps the accepted password size. Zero means
	// DefaultMaxPasswordBytes.
	MaxPasswordBytes int
}

// DefaultConfig returns the parameters used when the caller does not override
// them: 64 MiB, three passes, two lanes, 32-byte key.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		KeyLength:   32,

		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// Hasher hashes and verifies passwords with Argon2id. It is immutable after
// construction and safe for concurrent use.
type Hasher struct {
	config Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewHasher validates cfg against the minimum accepted costs.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}

	return &Hasher{config: cfg}, nil
}

// GenerateSalt returns SaltBytes bytes from crypto/rand, hex-encoded for storage.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives an Argon2id key from password and the hex-encoded salt and
// returns it as a PHC string:
//
//	$argon2id$v=19$m=<kb>,t=<passes>,p=<lanes>$<salt b64>$<key b64>
//
// The password bytes are used exactly as given.
func (h *Hasher) Hash(password, salt string) (string, error) {
	if password == "" {
		return "", errors.New("password: empty password")
	}
	if len(password) > h.config.MaxPasswordBytes {
		return "", ErrTooLong
	}

	saltBytes, err := decodeSalt(salt)
	if err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		saltBytes,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(saltBytes),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key for password using the parameters embedded in
// encoded and compares it in constant time. The salt embedded in encoded must
// match the stored per-user salt, otherwise verification fails.
func (h *Hasher) Verify(password, salt, encoded string) (bool, error) {
	if len(password) > h.config.MaxPasswordBytes {
		return false, ErrTooLong
	}

	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	saltBytes, err := decodeSalt(salt)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		saltBytes,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	saltOK := subtle.ConstantTimeCompare(saltBytes, parsed.salt)
	keyOK := subtle.ConstantTimeCompare(computed, parsed.hash)
	return saltOK&keyOK == 1, nil
}

// Burn performs one key derivation with the configured costs and discards the
// result. Login calls it for unknown usernames so that the response time does
// not depend on whether the account exists.
func (h *Hasher) Burn(password string) {
	if len(password) > h.config.MaxPasswordBytes {
		password = password[:h.config.MaxPasswordBytes]
	}
	var zero [SaltBytes]byte
	_ = argon2.IDKey([]byte(password), zero[:], h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the hasher's current configuration.
func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	switch {
	case h.config.Memory > parsed.memory,
		h.config.Time > parsed.time,
		h.config.Parallelism > parsed.parallelism,
		h.config.KeyLength != parsed.keyLength:
		return true, nil
	}

	return false, nil
}

func decodeSalt(salt string) ([]byte, error) {
	b, err := hex.DecodeString(salt)
	if err != nil || len(b) != SaltBytes {
		return nil, ErrMalformedSalt
	}
	return b, nil
}

func parsePHC(encoded string) (*parsedPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: invalid PHC format", ErrMalformedHash)
	}

	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm", ErrMalformedHash)
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, fmt.Errorf("%w: invalid version", ErrMalformedHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("%w: invalid salt encoding", ErrMalformedHash)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) < int(minKeyLength) {
		return nil, fmt.Errorf("%w: invalid key encoding", ErrMalformedHash)
	}

	return &parsedPHC{
		memory:      params.memory,
		time:        params.time,
		parallelism: params.parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

type parsedParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseParams(part string) (*parsedParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, fmt.Errorf("%w: invalid parameter format", ErrMalformedHash)
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             parsedParams
	)

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: invalid parameter entry", ErrMalformedHash)
		}

		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return nil, fmt.Errorf("%w: invalid memory parameter", ErrMalformedHash)
			}
			params.memory = uint32(n)
			memorySet = true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return nil, fmt.Errorf("%w: invalid time parameter", ErrMalformedHash)
			}
			params.time = uint32(n)
			timeSet = true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return nil, fmt.Errorf("%w: invalid parallelism parameter", ErrMalformedHash)
			}
			params.parallelism = uint8(n)
			parallelismSet = true
		default:
			return nil, fmt.Errorf("%w: unsupported parameter %q", ErrMalformedHash, k)
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}

	return &params, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	if cfg.MaxPasswordBytes < 0 {
		return errors.New("password max bytes must be >= 0")
	}

	return nil
}
