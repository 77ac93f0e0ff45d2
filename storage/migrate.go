package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies every pending embedded migration for the handle's dialect.
// Progress lines go to logger at debug level; a nil logger discards them.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	dialect, dir := "pgx", "migrations/postgres"
	if db.Dialect == DialectSQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect(dialect); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", dialect).Wrap(err)
	}

	if err := gooseUpContext(ctx, db.DB, dir); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", dialect).Wrap(err)
	}
	return nil
}

type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

// Fatalf is only reached from goose's command-line helpers, which Migrate
// does not use. It logs at error level instead of exiting.
func (l gooseLogger) Fatalf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}
