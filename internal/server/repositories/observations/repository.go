package observations

import (
	"context"

	"github.com/iudp/ledger/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, obs *models.MonthObservation) error
	Get(ctx context.Context, month, year int) (*models.MonthObservation, error)
}
