package repomanager

import (
	"context"
	"database/sql"

	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/repositories/audit"
	"github.com/iudp/ledger/internal/server/repositories/entries"
	"github.com/iudp/ledger/internal/server/repositories/observations"
	"github.com/iudp/ledger/internal/server/repositories/overrides"
	"github.com/iudp/ledger/internal/server/repositories/periods"
	"github.com/iudp/ledger/internal/server/repositories/unlockrequests"
	"github.com/iudp/ledger/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Entries(db dbx.DBTX) entries.Repository
	Overrides(db dbx.DBTX) overrides.Repository
	Periods(db dbx.DBTX) periods.Repository
	UnlockRequests(db dbx.DBTX) unlockrequests.Repository
	Observations(db dbx.DBTX) observations.Repository
	Audit(db dbx.DBTX) audit.Repository
}
