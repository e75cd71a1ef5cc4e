// Package audit stores the append-only audit trail.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (log_id, action, user_id, user_name, timestamp, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.LogID, event.Action, event.UserID, event.UserName, event.Timestamp, details)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns the most recent events, optionally restricted to one action.
func (r *PostgresRepository) List(ctx context.Context, action string, limit int) ([]models.AuditEvent, error) {
	query := `SELECT log_id, action, user_id, user_name, timestamp, details FROM audit_logs`
	args := []any{}
	if action != "" {
		args = append(args, action)
		query += ` WHERE action = $1`
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit logs: %w", err)
	}
	defer rows.Close()

	result := make([]models.AuditEvent, 0)
	for rows.Next() {
		var (
			e       models.AuditEvent
			details []byte
		)
		if err := rows.Scan(&e.LogID, &e.Action, &e.UserID, &e.UserName, &e.Timestamp, &details); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode details: %w", err)
			}
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
