package periods

import (
	"context"
	"time"

	"github.com/iudp/ledger/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, month, year int) (*models.PeriodStatus, error)
	IsClosed(ctx context.Context, month, year int) (bool, error)
	Close(ctx context.Context, month, year int, by string, at time.Time) error
	Reopen(ctx context.Context, month, year int, by string, at time.Time) error
}
