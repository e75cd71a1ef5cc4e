// Package observations stores the free-text note of each month.
package observations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert replaces the observation of the month identified by obs.ObsID.
func (r *PostgresRepository) Upsert(ctx context.Context, obs *models.MonthObservation) error {
	query := `
		INSERT INTO month_observations (obs_id, year, month, observation, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (obs_id)
		DO UPDATE SET
			observation = EXCLUDED.observation,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		obs.ObsID, obs.Year, obs.Month, obs.Observation, obs.UpdatedBy, obs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the month's observation or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, month, year int) (*models.MonthObservation, error) {
	query := `
		SELECT obs_id, year, month, observation, updated_by, updated_at
		FROM month_observations
		WHERE obs_id = $1
	`
	var o models.MonthObservation
	err := r.db.QueryRowContext(ctx, query, models.MonthID(year, month)).
		Scan(&o.ObsID, &o.Year, &o.Month, &o.Observation, &o.UpdatedBy, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &o, nil
}
