// Package overrides stores the temporary write grants issued by the master:
// slot overrides for a (day, slot) and edit overrides for an existing entry.
package overrides

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

// CreateSlot persists a new slot override.
func (r *PostgresRepository) CreateSlot(ctx context.Context, o *models.SlotOverride) error {
	query := `
		INSERT INTO slot_overrides (override_id, user_id, church_id, year, month, day, time_slot,
			expires_at, request_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		o.OverrideID, o.UserID, o.ChurchID, o.Year, o.Month, o.Day, o.TimeSlot,
		o.ExpiresAt, o.RequestID, o.CreatedBy, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindActiveSlot returns the longest-lived override matching the slot for the
// reporter or the reporter's church whose expiry is strictly after now.
// common.ErrorNotFound is returned when none is live.
func (r *PostgresRepository) FindActiveSlot(ctx context.Context, q models.SlotQuery, now time.Time) (*models.SlotOverride, error) {
	query := `
		SELECT override_id, user_id, church_id, year, month, day, time_slot,
			expires_at, request_id, created_by, created_at
		FROM slot_overrides
		WHERE year = $1 AND month = $2 AND day = $3 AND time_slot = $4
			AND (user_id = $5 OR church_id = $6)
			AND expires_at > $7
		ORDER BY expires_at DESC
		LIMIT 1
	`
	var o models.SlotOverride
	err := r.db.QueryRowContext(ctx, query, q.Year, q.Month, q.Day, q.TimeSlot, q.UserID, q.ChurchID, now).
		Scan(&o.OverrideID, &o.UserID, &o.ChurchID, &o.Year, &o.Month, &o.Day, &o.TimeSlot,
			&o.ExpiresAt, &o.RequestID, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &o, nil
}

// UpsertEdit creates the edit override of an entry or extends the existing one.
func (r *PostgresRepository) UpsertEdit(ctx context.Context, o *models.EditOverride) error {
	query := `
		INSERT INTO edit_overrides (override_id, entry_id, expires_at, request_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entry_id)
		DO UPDATE SET
			expires_at = EXCLUDED.expires_at,
			request_id = EXCLUDED.request_id,
			created_by = EXCLUDED.created_by,
			created_at = EXCLUDED.created_at
		RETURNING override_id
	`
	err := r.db.QueryRowContext(ctx, query,
		o.OverrideID, o.EntryID, o.ExpiresAt, o.RequestID, o.CreatedBy, o.CreatedAt).
		Scan(&o.OverrideID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindActiveEdit returns the edit override of the entry if it expires after now.
func (r *PostgresRepository) FindActiveEdit(ctx context.Context, entryID string, now time.Time) (*models.EditOverride, error) {
	query := `
		SELECT override_id, entry_id, expires_at, request_id, created_by, created_at
		FROM edit_overrides
		WHERE entry_id = $1 AND expires_at > $2
	`
	var o models.EditOverride
	err := r.db.QueryRowContext(ctx, query, entryID, now).
		Scan(&o.OverrideID, &o.EntryID, &o.ExpiresAt, &o.RequestID, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &o, nil
}
