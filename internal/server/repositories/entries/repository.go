package entries

import (
	"context"
	"time"

	"github.com/iudp/ledger/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, entry *models.Entry) error
	FindBySlot(ctx context.Context, churchID string, year, month, day int, slot string) (*models.Entry, error)
	GetByID(ctx context.Context, entryID string) (*models.Entry, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error)
	MarkTimeLocked(ctx context.Context, entryID string) (bool, error)
	SetMasterUnlock(ctx context.Context, entryID string, until time.Time) error
	AppendReceipt(ctx context.Context, entryID string, receipt models.Receipt) error
	Delete(ctx context.Context, entryID string) error
}
