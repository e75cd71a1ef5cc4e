// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/migrations"
	"github.com/iudp/ledger/internal/server/repositories/audit"
	"github.com/iudp/ledger/internal/server/repositories/entries"
	"github.com/iudp/ledger/internal/server/repositories/observations"
	"github.com/iudp/ledger/internal/server/repositories/overrides"
	"github.com/iudp/ledger/internal/server/repositories/periods"
	"github.com/iudp/ledger/internal/server/repositories/unlockrequests"
	"github.com/iudp/ledger/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to
// either the pool or a transaction.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Overrides(db dbx.DBTX) overrides.Repository {
	return overrides.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Periods(db dbx.DBTX) periods.Repository {
	return periods.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) UnlockRequests(db dbx.DBTX) unlockrequests.Repository {
	return unlockrequests.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Observations(db dbx.DBTX) observations.Repository {
	return observations.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
