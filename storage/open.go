package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	// DialectPostgres uses the pgx database/sql driver.
	DialectPostgres Dialect = "postgres"
	// DialectSQLite uses the pure-Go modernc driver.
	DialectSQLite Dialect = "sqlite"
)

// ParseDialect accepts the dialect names used in configuration files.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("storage: unknown dialect %q", s)
	}
}

func (d Dialect) driverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// DB is a database handle that remembers which dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to dsn with the driver for dialect and verifies the
// connection with a ping.
//
// SQLite connections get foreign key enforcement and a busy timeout. An
// in-memory SQLite database is limited to one connection, since every new
// connection would otherwise see its own empty database.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	if dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").With("dialect", string(dialect)).Wrap(err)
	}

	if dialect == DialectSQLite && isSQLiteMemory(dsn) {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("dialect", string(dialect)).Wrap(err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isSQLiteMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
