package services

import (
	"context"
	"database/sql"

	"github.com/iudp/ledger/internal/server/ledger"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
	"github.com/iudp/ledger/internal/server/slots"
)

type DashboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	catalog     slots.Catalog
}

func NewDashboardService(db *sql.DB, m repomanager.RepositoryManager, catalog slots.Catalog) *DashboardService {
	return &DashboardService{db: db, repomanager: m, catalog: catalog}
}

// Summary totals the month over the entries visible to caller.
func (s *DashboardService) Summary(ctx context.Context, caller models.Caller, month, year int) (*ledger.Summary, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Entries(s.db).List(ctx, ledger.ScopeFilter(caller, month, year))
	if err != nil {
		return nil, err
	}
	sum := ledger.Summarize(month, year, list, s.catalog.Slots())
	return &sum, nil
}
