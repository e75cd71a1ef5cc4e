package unlockrequests

import (
	"context"

	"github.com/iudp/ledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.UnlockRequest) error
	GetByID(ctx context.Context, requestID string) (*models.UnlockRequest, error)
	List(ctx context.Context, status models.UnlockStatus, userID string) ([]models.UnlockRequest, error)
	Decide(ctx context.Context, r *models.UnlockRequest) error
	Delete(ctx context.Context, requestID string) error
}
