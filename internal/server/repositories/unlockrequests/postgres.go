// Package unlockrequests stores reporters' requests to reopen a slot or an entry.
package unlockrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/models"
)

const requestColumns = `request_id, user_id, user_name, church_id, church, entry_id, year, month, day,
		time_slot, reason, status, created_at, decided_by, decided_at, unlocked_until, rejection_reason`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(s rowScanner) (*models.UnlockRequest, error) {
	var (
		r                    models.UnlockRequest
		entryID              sql.NullString
		decidedAt, unlockedT sql.NullTime
	)
	err := s.Scan(&r.RequestID, &r.UserID, &r.UserName, &r.ChurchID, &r.Church, &entryID,
		&r.Year, &r.Month, &r.Day, &r.TimeSlot, &r.Reason, &r.Status, &r.CreatedAt,
		&r.DecidedBy, &decidedAt, &unlockedT, &r.RejectionReason)
	if err != nil {
		return nil, err
	}
	r.EntryID = dbx.StringPtr(entryID)
	r.DecidedAt = dbx.TimePtr(decidedAt)
	r.UnlockedUntil = dbx.TimePtr(unlockedT)
	return &r, nil
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.UnlockRequest) error {
	query := `
		INSERT INTO unlock_requests (request_id, user_id, user_name, church_id, church, entry_id,
			year, month, day, time_slot, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		req.RequestID, req.UserID, req.UserName, req.ChurchID, req.Church, dbx.NullString(req.EntryID),
		req.Year, req.Month, req.Day, req.TimeSlot, req.Reason, req.Status, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, requestID string) (*models.UnlockRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM unlock_requests WHERE request_id = $1`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

// List returns requests newest first. Empty status or userID means any.
func (r *PostgresRepository) List(ctx context.Context, status models.UnlockStatus, userID string) ([]models.UnlockRequest, error) {
	var (
		conds []string
		args  []any
	)
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if userID != "" {
		args = append(args, userID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM unlock_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select unlock requests: %w", err)
	}
	defer rows.Close()

	result := make([]models.UnlockRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Decide stores the decision of a pending request. A request that is no
// longer pending yields common.ErrInvalidTransition.
func (r *PostgresRepository) Decide(ctx context.Context, req *models.UnlockRequest) error {
	query := `
		UPDATE unlock_requests
		SET status = $2, decided_by = $3, decided_at = $4, unlocked_until = $5, rejection_reason = $6
		WHERE request_id = $1 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, query, req.RequestID, req.Status, req.DecidedBy,
		dbx.NullTime(req.DecidedAt), dbx.NullTime(req.UnlockedUntil), req.RejectionReason)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, requestID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM unlock_requests WHERE request_id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
