package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
)

const MaxObservationLength = 10000

type ObservationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
	audit       *AuditService
}

func NewObservationService(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock, audit *AuditService) *ObservationService {
	return &ObservationService{db: db, repomanager: m, clock: c, audit: audit}
}

// Save replaces the observation of a month.
func (s *ObservationService) Save(ctx context.Context, caller models.Caller, month, year int, text string) (*models.MonthObservation, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(text) > MaxObservationLength {
		return nil, fmt.Errorf("%w: observation longer than %d characters", common.ErrValidation, MaxObservationLength)
	}

	obs := &models.MonthObservation{
		ObsID:       models.MonthID(year, month),
		Month:       month,
		Year:        year,
		Observation: text,
		UpdatedBy:   caller.UserID,
		UpdatedAt:   s.clock.Now(),
	}
	if err := s.repomanager.Observations(s.db).Upsert(ctx, obs); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller, models.ActionSaveObservation, map[string]any{
		"obsId":  obs.ObsID,
		"length": utf8.RuneCountInString(text),
	})
	return obs, nil
}

// Get returns the month's observation; a month without one yields an empty observation.
func (s *ObservationService) Get(ctx context.Context, month, year int) (*models.MonthObservation, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	obs, err := s.repomanager.Observations(s.db).Get(ctx, month, year)
	if errors.Is(err, common.ErrorNotFound) {
		return &models.MonthObservation{ObsID: models.MonthID(year, month), Month: month, Year: year}, nil
	}
	return obs, err
}
