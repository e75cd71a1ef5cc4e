// Package entries provides the PostgreSQL-backed store of offering entries.
package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/models"
)

const entryColumns = `entry_id, year, month, day, time_slot, value, cash, pix, card, notes,
		user_id, user_name, church_id, church, region, state, created_at, updated_at,
		time_window_locked, master_unlocked, unlocked_until, receipts`

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (*models.Entry, error) {
	var (
		e                               models.Entry
		createdAt, updatedAt, unlockedT sql.NullTime
	)
	err := s.Scan(
		&e.EntryID, &e.Year, &e.Month, &e.Day, &e.TimeSlot, &e.Value, &e.Cash, &e.Pix, &e.Card, &e.Notes,
		&e.UserID, &e.UserName, &e.ChurchID, &e.Church, &e.Region, &e.State, &createdAt, &updatedAt,
		&e.TimeWindowLocked, &e.MasterUnlocked, &unlockedT, &e.Receipts,
	)
	if err != nil {
		return nil, err
	}
	e.CreatedAt = dbx.TimePtr(createdAt)
	e.UpdatedAt = dbx.TimePtr(updatedAt)
	e.UnlockedUntil = dbx.TimePtr(unlockedT)
	return &e, nil
}

// Upsert inserts the entry or updates the amounts of the existing entry with
// the same (church, year, month, day, slot). Lock flags and created_at of an
// existing row are preserved. EntryID and CreatedAt are refreshed from the
// stored row.
func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO entries (entry_id, year, month, day, time_slot, value, cash, pix, card, notes,
			user_id, user_name, church_id, church, region, state, created_at, updated_at, receipts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (church_id, year, month, day, time_slot)
		DO UPDATE SET
			value = EXCLUDED.value,
			cash = EXCLUDED.cash,
			pix = EXCLUDED.pix,
			card = EXCLUDED.card,
			notes = EXCLUDED.notes,
			user_id = EXCLUDED.user_id,
			user_name = EXCLUDED.user_name,
			updated_at = EXCLUDED.updated_at
		RETURNING entry_id, created_at
	`
	var createdAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query,
		entry.EntryID, entry.Year, entry.Month, entry.Day, entry.TimeSlot,
		entry.Value, entry.Cash, entry.Pix, entry.Card, entry.Notes,
		entry.UserID, entry.UserName, entry.ChurchID, entry.Church, entry.Region, entry.State,
		dbx.NullTime(entry.CreatedAt), dbx.NullTime(entry.UpdatedAt), entry.Receipts,
	).Scan(&entry.EntryID, &createdAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	entry.CreatedAt = dbx.TimePtr(createdAt)
	return nil
}

// FindBySlot returns the entry of a church for a (day, slot) or common.ErrorNotFound.
func (r *PostgresRepository) FindBySlot(ctx context.Context, churchID string, year, month, day int, slot string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE church_id = $1 AND year = $2 AND month = $3 AND day = $4 AND time_slot = $5`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, churchID, year, month, day, slot))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// GetByID returns the entry with entryID or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, entryID string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE entry_id = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// List returns the entries of a month matching the non-empty filter fields,
// ordered by day and slot.
func (r *PostgresRepository) List(ctx context.Context, f models.EntryFilter) ([]models.Entry, error) {
	conds := []string{"year = $1", "month = $2"}
	args := []any{f.Year, f.Month}

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("church_id", f.ChurchID)
	if f.Region != "" {
		args = append(args, f.Region, f.State)
		conds = append(conds,
			fmt.Sprintf("region = $%d", len(args)-1),
			fmt.Sprintf("state = $%d", len(args)))
	} else {
		add("state", f.State)
	}
	add("user_id", f.UserID)

	query := `SELECT ` + entryColumns + ` FROM entries WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY day, time_slot, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkTimeLocked flips time_window_locked to true. It reports whether this
// call changed the row; an already locked or missing entry is not an error.
func (r *PostgresRepository) MarkTimeLocked(ctx context.Context, entryID string) (bool, error) {
	query := `UPDATE entries SET time_window_locked = TRUE
		WHERE entry_id = $1 AND time_window_locked = FALSE`

	res, err := r.db.ExecContext(ctx, query, entryID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

// SetMasterUnlock marks the entry as unlocked by the master until the given instant.
func (r *PostgresRepository) SetMasterUnlock(ctx context.Context, entryID string, until time.Time) error {
	query := `UPDATE entries SET master_unlocked = TRUE, unlocked_until = $2 WHERE entry_id = $1`
	return r.execOne(ctx, query, entryID, until)
}

// AppendReceipt adds a receipt reference to the entry's receipts array.
func (r *PostgresRepository) AppendReceipt(ctx context.Context, entryID string, receipt models.Receipt) error {
	b, err := json.Marshal([]models.Receipt{receipt})
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	query := `UPDATE entries SET receipts = receipts || $2::jsonb WHERE entry_id = $1`
	return r.execOne(ctx, query, entryID, b)
}

// Delete removes the entry.
func (r *PostgresRepository) Delete(ctx context.Context, entryID string) error {
	return r.execOne(ctx, `DELETE FROM entries WHERE entry_id = $1`, entryID)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
