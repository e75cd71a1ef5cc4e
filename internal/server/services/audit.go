// Package services contains server-side business logic: it binds the access
// engine, the ledger rules and the repositories into the operations exposed
// by the transports.
package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
)

// AuditService is the best-effort audit sink. Failed writes are logged and
// never surface to the caller.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
	logger      logging.Logger
}

func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock, l logging.Logger) *AuditService {
	return &AuditService{db: db, repomanager: m, clock: c, logger: l.With("module", "audit")}
}

// Record stores ev, filling LogID and Timestamp when missing.
func (s *AuditService) Record(ctx context.Context, ev models.AuditEvent) {
	if ev.LogID == "" {
		ev.LogID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.clock.Now()
	}
	if ev.Details == nil {
		ev.Details = map[string]any{}
	}

	if err := s.repomanager.Audit(s.db).Insert(ctx, &ev); err != nil {
		s.logger.Warn(ctx, "audit write failed", "action", ev.Action, "user_id", ev.UserID, "error", err)
	}
}

// Log records an action performed by caller.
func (s *AuditService) Log(ctx context.Context, caller models.Caller, action string, details map[string]any) {
	s.Record(ctx, models.AuditEvent{
		Action:   action,
		UserID:   caller.UserID,
		UserName: caller.Name,
		Details:  details,
	})
}
