package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres constraint names declared by the migrations, mapped to the column
// they protect.
var constraintColumns = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"user_salts_pkey":    "user_id",
	"admins_pkey":        "user_id",
}

// UniqueViolation reports whether err is a unique or primary key violation
// and, if so, which column it concerns ("username", "email", ...). The column
// is empty when the backend does not say.
func UniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgerrcode.UniqueViolation {
			return "", false
		}
		if col, found := constraintColumns[pgErr.ConstraintName]; found {
			return col, true
		}
		return pgErr.ColumnName, true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return sqliteColumn(liteErr.Error()), true
		}
	}

	return "", false
}

// sqliteColumn extracts "username" from
// "constraint failed: UNIQUE constraint failed: users.username (2067)".
func sqliteColumn(msg string) string {
	_, rest, ok := strings.Cut(msg, "constraint failed: ")
	for ok && strings.Contains(rest, "constraint failed: ") {
		_, rest, ok = strings.Cut(rest, "constraint failed: ")
	}
	if !ok {
		return ""
	}
	field, _, _ := strings.Cut(rest, " ")
	field, _, _ = strings.Cut(field, ",")
	if _, col, found := strings.Cut(field, "."); found {
		return col
	}
	return field
}
