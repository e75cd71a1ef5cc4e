// Package periods stores the closed/open flag of each (month, year).
package periods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the status of a month. A month without a row is open.
func (r *PostgresRepository) Get(ctx context.Context, month, year int) (*models.PeriodStatus, error) {
	query := `
		SELECT closed, closed_by, closed_at, reopened_by, reopened_at
		FROM month_status
		WHERE year = $1 AND month = $2
	`
	var (
		s                    = models.PeriodStatus{Month: month, Year: year}
		closedAt, reopenedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, year, month).
		Scan(&s.Closed, &s.ClosedBy, &closedAt, &s.ReopenedBy, &reopenedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &s, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.ClosedAt = dbx.TimePtr(closedAt)
	s.ReopenedAt = dbx.TimePtr(reopenedAt)
	return &s, nil
}

// IsClosed reports whether the month is closed.
func (r *PostgresRepository) IsClosed(ctx context.Context, month, year int) (bool, error) {
	s, err := r.Get(ctx, month, year)
	if err != nil {
		return false, err
	}
	return s.Closed, nil
}

// Close marks the month closed.
func (r *PostgresRepository) Close(ctx context.Context, month, year int, by string, at time.Time) error {
	query := `
		INSERT INTO month_status (year, month, closed, closed_by, closed_at)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (year, month)
		DO UPDATE SET closed = TRUE, closed_by = EXCLUDED.closed_by, closed_at = EXCLUDED.closed_at
	`
	if _, err := r.db.ExecContext(ctx, query, year, month, by, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Reopen marks the month open again, keeping who closed it.
func (r *PostgresRepository) Reopen(ctx context.Context, month, year int, by string, at time.Time) error {
	query := `
		INSERT INTO month_status (year, month, closed, reopened_by, reopened_at)
		VALUES ($1, $2, FALSE, $3, $4)
		ON CONFLICT (year, month)
		DO UPDATE SET closed = FALSE, reopened_by = EXCLUDED.reopened_by, reopened_at = EXCLUDED.reopened_at
	`
	if _, err := r.db.ExecContext(ctx, query, year, month, by, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
