// Package storage is the relational storage capability used by the
// authentication core.
//
// It exposes a minimal [DBTX] interface satisfied by both *sql.DB and *sql.Tx,
// a [WithTx] helper that commits on success and rolls back on error or panic,
// driver selection for PostgreSQL (pgx) and SQLite (modernc), embedded goose
// migrations for both dialects, and classification of unique-constraint
// violations so that racing registrations can be reported as duplicates.
//
// Every statement issued through this package and its subpackages binds
// values as positional parameters ($1, $2, ...). No query text is ever built
// from caller input.
package storage
