package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
)

type PeriodService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
	audit       *AuditService
}

func NewPeriodService(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock, audit *AuditService) *PeriodService {
	return &PeriodService{db: db, repomanager: m, clock: c, audit: audit}
}

func validateMonth(month, year int) error {
	if month < 1 || month > 12 || year < minYear {
		return fmt.Errorf("%w: invalid month", common.ErrValidation)
	}
	return nil
}

func (s *PeriodService) Close(ctx context.Context, caller models.Caller, month, year int) (*models.PeriodStatus, error) {
	return s.set(ctx, caller, month, year, true)
}

func (s *PeriodService) Reopen(ctx context.Context, caller models.Caller, month, year int) (*models.PeriodStatus, error) {
	return s.set(ctx, caller, month, year, false)
}

func (s *PeriodService) set(ctx context.Context, caller models.Caller, month, year int, closed bool) (*models.PeriodStatus, error) {
	if !caller.IsMaster() {
		return nil, common.ErrForbidden
	}
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}

	repo := s.repomanager.Periods(s.db)
	now := s.clock.Now()

	action := models.ActionCloseMonth
	var err error
	if closed {
		err = repo.Close(ctx, month, year, caller.UserID, now)
	} else {
		action = models.ActionReopenMonth
		err = repo.Reopen(ctx, month, year, caller.UserID, now)
	}
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller, action, map[string]any{
		"month":   month,
		"year":    year,
		"monthId": models.MonthID(year, month),
	})
	return repo.Get(ctx, month, year)
}

func (s *PeriodService) Status(ctx context.Context, month, year int) (*models.PeriodStatus, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	return s.repomanager.Periods(s.db).Get(ctx, month, year)
}
