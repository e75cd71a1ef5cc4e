package overrides

import (
	"context"
	"time"

	"github.com/iudp/ledger/internal/server/models"
)

type Repository interface {
	CreateSlot(ctx context.Context, o *models.SlotOverride) error
	FindActiveSlot(ctx context.Context, q models.SlotQuery, now time.Time) (*models.SlotOverride, error)
	UpsertEdit(ctx context.Context, o *models.EditOverride) error
	FindActiveEdit(ctx context.Context, entryID string, now time.Time) (*models.EditOverride, error)
}
