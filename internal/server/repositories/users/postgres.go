// Package users stores ledger accounts and their jurisdiction attributes.
package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `user_id, name, email, password_hash, role, scope, church_id, church, region, state,
		permissions, active, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user. A duplicate email yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	perms, err := json.Marshal(user.Permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}

	query :=
		`INSERT INTO users (user_id, name, email, password_hash, role, scope, church_id, church, region, state,
			permissions, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.ExecContext(ctx, query,
		user.UserID, user.Name, user.Email, user.PasswordHash, user.Role, user.Scope,
		user.ChurchID, user.Church, user.Region, user.State, perms, user.Active, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var (
		u     models.User
		perms []byte
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Role, &u.Scope, &u.ChurchID, &u.Church, &u.Region, &u.State, &perms, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &u.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
	}
	return &u, nil
}
