// Package userstore holds the SQL for users, their salts and admin records.
// Every query binds values positionally; the same statements run on
// PostgreSQL and SQLite.
package userstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/MrEthical07/authcore/storage"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("userstore: not found")
	// ErrAmbiguous is returned when a lookup that must match at most one row
	// matches several.
	ErrAmbiguous = errors.New("userstore: more than one row matched")
)

// Credentials is a user row joined with its salt.
type Credentials struct {
	UserID       int64
	Username     string
	PasswordHash string
	Salt         string
	IsActive     bool
}

// NewUser is the data inserted at registration.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// Store runs queries against a plain handle or an open transaction.
type Store struct {
	db storage.DBTX
}

// New binds a Store to db.
func New(db storage.DBTX) *Store {
	return &Store{db: db}
}

func queryFailed(op string, err error) error {
	return oops.Code("DB_QUERY_FAILED").With("operation", op).Wrap(err)
}

// FindCredentials looks up the user with exactly this username together with
// its salt. All matching rows are read so that a duplicate is detected
// instead of silently picking one.
func (s *Store) FindCredentials(ctx context.Context, username string) (Credentials, error) {
	const query = `SELECT u.id, u.username, u.password_hash, u.is_active, s.salt
		FROM users u
		JOIN user_salts s ON s.user_id = u.id
		WHERE u.username = $1`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return Credentials{}, queryFailed("find credentials", err)
	}
	defer rows.Close()

	var (
		found Credentials
		n     int
	)
	for rows.Next() {
		n++
		if n > 1 {
			return Credentials{}, ErrAmbiguous
		}
		if err := rows.Scan(&found.UserID, &found.Username, &found.PasswordHash, &found.IsActive, &found.Salt); err != nil {
			return Credentials{}, queryFailed("scan credentials", err)
		}
	}
	if err := rows.Err(); err != nil {
		return Credentials{}, queryFailed("iterate credentials", err)
	}
	if n == 0 {
		return Credentials{}, ErrNotFound
	}

	return found, nil
}

// UsernameExists reports whether a user with exactly this username exists.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username exists", `SELECT 1 FROM users WHERE username = $1`, username)
}

// EmailExists reports whether a user with exactly this email exists.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email exists", `SELECT 1 FROM users WHERE email = $1`, email)
}

// UserExists reports whether a user with this id exists.
func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	return s.exists(ctx, "user exists", `SELECT 1 FROM users WHERE id = $1`, userID)
}

func (s *Store) exists(ctx context.Context, op, query string, arg any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, queryFailed(op, err)
	}
	return true, nil
}

// InsertUser creates an active user and returns its id. A unique violation
// stays reachable through the wrapping for storage.UniqueViolation.
func (s *Store) InsertUser(ctx context.Context, u NewUser) (int64, error) {
	const query = `INSERT INTO users (username, email, password_hash, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash).Scan(&id); err != nil {
		return 0, queryFailed("insert user", err)
	}
	return id, nil
}

// InsertSalt stores the salt for userID.
func (s *Store) InsertSalt(ctx context.Context, userID int64, salt string) error {
	const query = `INSERT INTO user_salts (user_id, salt) VALUES ($1, $2)`

	if _, err := s.db.ExecContext(ctx, query, userID, salt); err != nil {
		return queryFailed("insert salt", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash of userID.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	const query = `UPDATE users SET password_hash = $1 WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, hash, userID)
	if err != nil {
		return queryFailed("update password hash", err)
	}
	return requireOne(res, "update password hash")
}

// SetActive changes the activation flag of userID.
func (s *Store) SetActive(ctx context.Context, userID int64, active bool) error {
	const query = `UPDATE users SET is_active = $1 WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, active, userID)
	if err != nil {
		return queryFailed("set active", err)
	}
	return requireOne(res, "set active")
}

// IsActive reports the activation flag of userID, or ErrNotFound when the
// user does not exist.
func (s *Store) IsActive(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT is_active FROM users WHERE id = $1`

	var active bool
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, queryFailed("is active", err)
	}
	return active, nil
}

func requireOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return queryFailed(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdminRole returns the stored role of userID, or ErrNotFound when the user
// has no admin record.
func (s *Store) AdminRole(ctx context.Context, userID int64) (string, error) {
	const query = `SELECT role FROM admins WHERE user_id = $1`

	var role string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", queryFailed("admin role", err)
	}
	return role, nil
}

// UpsertAdmin creates or replaces the admin record of userID.
func (s *Store) UpsertAdmin(ctx context.Context, userID int64, role string) error {
	const query = `INSERT INTO admins (user_id, role, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET role = excluded.role, updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, userID, role); err != nil {
		return queryFailed("upsert admin", err)
	}
	return nil
}

// DeleteAdmin removes the admin record of userID. Deleting a missing record
// is not an error.
func (s *Store) DeleteAdmin(ctx context.Context, userID int64) error {
	const query = `DELETE FROM admins WHERE user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return queryFailed("delete admin", err)
	}
	return nil
}
