package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/ledger"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
	"github.com/iudp/ledger/internal/server/slots"
)

const approvalLockTTL = 30 * time.Second

// UnlockInput is a reporter's request to reopen a slot or one of its entries.
type UnlockInput struct {
	SlotRef
	EntryID *string
	Reason  string
}

type UnlockService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
	catalog     slots.Catalog
	locker      Locker
	audit       *AuditService
	logger      logging.Logger
}

func NewUnlockService(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock, catalog slots.Catalog,
	locker Locker, audit *AuditService, l logging.Logger) *UnlockService {
	return &UnlockService{
		db:          db,
		repomanager: m,
		clock:       c,
		catalog:     catalog,
		locker:      locker,
		audit:       audit,
		logger:      l.With("module", "unlock"),
	}
}

// Request files a pending unlock request. The target month must be open.
func (s *UnlockService) Request(ctx context.Context, caller models.Caller, in UnlockInput) (*models.UnlockRequest, error) {
	if err := validateSlotRef(s.catalog, in.SlotRef); err != nil {
		return nil, err
	}

	closed, err := s.repomanager.Periods(s.db).IsClosed(ctx, in.Month, in.Year)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, common.ErrMonthClosed
	}

	if in.EntryID != nil && *in.EntryID != "" {
		e, err := s.repomanager.Entries(s.db).GetByID(ctx, *in.EntryID)
		if err != nil {
			return nil, err
		}
		if !ledger.Visible(caller, *e) {
			return nil, common.ErrForbidden
		}
	} else {
		in.EntryID = nil
	}

	req := &models.UnlockRequest{
		RequestID: uuid.NewString(),
		UserID:    caller.UserID,
		UserName:  caller.Name,
		ChurchID:  caller.ChurchID,
		Church:    caller.Church,
		EntryID:   in.EntryID,
		Year:      in.Year,
		Month:     in.Month,
		Day:       in.Day,
		TimeSlot:  in.TimeSlot,
		Reason:    in.Reason,
		Status:    models.UnlockPending,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repomanager.UnlockRequests(s.db).Create(ctx, req); err != nil {
		return nil, fmt.Errorf("error creating unlock request: %w", err)
	}

	s.audit.Log(ctx, caller, models.ActionUnlockRequest, map[string]any{
		"requestId": req.RequestID,
		"entryId":   req.EntryID,
		"year":      req.Year,
		"month":     req.Month,
		"day":       req.Day,
		"timeSlot":  req.TimeSlot,
	})
	return req, nil
}

// List returns the master's requests filtered by status (pending when empty)
// or the caller's own requests.
func (s *UnlockService) List(ctx context.Context, caller models.Caller, status models.UnlockStatus) ([]models.UnlockRequest, error) {
	repo := s.repomanager.UnlockRequests(s.db)
	if caller.IsMaster() {
		if status == "" {
			status = models.UnlockPending
		}
		return repo.List(ctx, status, "")
	}
	return repo.List(ctx, status, caller.UserID)
}

// Approve grants the request for durationMinutes (0 selects the default).
// Every approval issues a slot override for the requester. An entry request
// additionally unlocks the entry and issues an edit override with the same
// expiry.
func (s *UnlockService) Approve(ctx context.Context, caller models.Caller, requestID string, durationMinutes int) (*models.UnlockRequest, error) {
	if !caller.IsMaster() {
		return nil, common.ErrForbidden
	}
	d, err := ledger.UnlockDuration(durationMinutes)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Obtain(ctx, "unlock:"+requestID, approvalLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	var approved *models.UnlockRequest
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		requests := s.repomanager.UnlockRequests(tx)

		req, err := requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		until := now.Add(d)
		if err := ledger.Approve(req, caller.UserID, now, until); err != nil {
			return err
		}

		overrides := s.repomanager.Overrides(tx)
		slot := &models.SlotOverride{
			OverrideID: uuid.NewString(),
			UserID:     req.UserID,
			ChurchID:   req.ChurchID,
			Year:       req.Year,
			Month:      req.Month,
			Day:        req.Day,
			TimeSlot:   req.TimeSlot,
			ExpiresAt:  until,
			RequestID:  req.RequestID,
			CreatedBy:  caller.UserID,
			CreatedAt:  now,
		}

		if req.EntryID != nil {
			entries := s.repomanager.Entries(tx)
			e, err := entries.GetByID(ctx, *req.EntryID)
			if err != nil {
				return err
			}
			if err := entries.SetMasterUnlock(ctx, e.EntryID, until); err != nil {
				return err
			}
			if err := overrides.UpsertEdit(ctx, &models.EditOverride{
				OverrideID: uuid.NewString(),
				EntryID:    e.EntryID,
				ExpiresAt:  until,
				RequestID:  req.RequestID,
				CreatedBy:  caller.UserID,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
			// The edit override only applies past the one-hour lock; the
			// slot override also covers a closed window inside that hour.
			slot.ChurchID = e.ChurchID
			slot.Year, slot.Month, slot.Day, slot.TimeSlot = e.Year, e.Month, e.Day, e.TimeSlot
		}

		if err := overrides.CreateSlot(ctx, slot); err != nil {
			return err
		}

		if err := requests.Decide(ctx, req); err != nil {
			return err
		}
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller, models.ActionUnlockApprove, map[string]any{
		"requestId":       approved.RequestID,
		"entryId":         approved.EntryID,
		"requesterId":     approved.UserID,
		"durationMinutes": int(d / time.Minute),
		"unlockedUntil":   approved.UnlockedUntil.Format(time.RFC3339),
	})
	return approved, nil
}

// Reject closes the request with a reason.
func (s *UnlockService) Reject(ctx context.Context, caller models.Caller, requestID, reason string) (*models.UnlockRequest, error) {
	if !caller.IsMaster() {
		return nil, common.ErrForbidden
	}

	repo := s.repomanager.UnlockRequests(s.db)
	req, err := repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Reject(req, caller.UserID, s.clock.Now(), reason); err != nil {
		return nil, err
	}
	if err := repo.Decide(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller, models.ActionUnlockReject, map[string]any{
		"requestId":   req.RequestID,
		"requesterId": req.UserID,
		"reason":      reason,
	})
	return req, nil
}

// Delete removes a request of any status. Only the master may delete.
func (s *UnlockService) Delete(ctx context.Context, caller models.Caller, requestID string) error {
	if !caller.IsMaster() {
		return common.ErrForbidden
	}
	if err := s.repomanager.UnlockRequests(s.db).Delete(ctx, requestID); err != nil {
		return fmt.Errorf("error deleting unlock request: %w", err)
	}

	s.audit.Log(ctx, caller, models.ActionUnlockDelete, map[string]any{"requestId": requestID})
	return nil
}
