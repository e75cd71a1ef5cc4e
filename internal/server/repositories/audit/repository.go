package audit

import (
	"context"

	"github.com/iudp/ledger/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
	List(ctx context.Context, action string, limit int) ([]models.AuditEvent, error)
}
