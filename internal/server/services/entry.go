package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/access"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/ledger"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
	"github.com/iudp/ledger/internal/server/slots"
	"github.com/shopspring/decimal"
)

const minYear = 2000

// SlotRef identifies a (day, slot) of a month.
type SlotRef struct {
	Year     int
	Month    int
	Day      int
	TimeSlot string
}

// SaveInput is a reporter's submission. A nil sub-total means "not supplied".
// ChurchID, Church, Region and State are honoured only for the master; other
// callers always write to their own church.
type SaveInput struct {
	SlotRef
	Value    *decimal.Decimal
	Cash     *decimal.Decimal
	Pix      *decimal.Decimal
	Card     *decimal.Decimal
	Notes    string
	ChurchID string
	Church   string
	Region   string
	State    string
}

// SaveResult carries the verdict and, when allowed, the stored entry.
type SaveResult struct {
	Verdict access.Verdict
	Entry   *models.Entry
}

// EntryView is an entry with its display lock state.
type EntryView struct {
	models.Entry
	Locked     bool              `json:"locked"`
	LockReason access.LockReason `json:"lockReason,omitempty"`
}

// MonthView is the listing of a month as seen by the caller.
type MonthView struct {
	Month        int                      `json:"month"`
	Year         int                      `json:"year"`
	PeriodClosed bool                     `json:"monthClosed"`
	Entries      []EntryView              `json:"entries"`
	Aggregated   []ledger.AggregatedEntry `json:"aggregated,omitempty"`
}

type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      *access.Engine
	clock       clock.Clock
	catalog     slots.Catalog
	audit       *AuditService
	logger      logging.Logger
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, engine *access.Engine, c clock.Clock,
	catalog slots.Catalog, audit *AuditService, l logging.Logger) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: m,
		engine:      engine,
		clock:       c,
		catalog:     catalog,
		audit:       audit,
		logger:      l.With("module", "entries"),
	}
}

func validateSlotRef(catalog slots.Catalog, r SlotRef) error {
	switch {
	case !catalog.Has(r.TimeSlot):
		return fmt.Errorf("%w: unknown timeSlot %q", common.ErrValidation, r.TimeSlot)
	case r.Year < minYear:
		return fmt.Errorf("%w: year must be >= %d", common.ErrValidation, minYear)
	case r.Month < 1 || r.Month > 12:
		return fmt.Errorf("%w: month must be between 1 and 12", common.ErrValidation)
	case r.Day < 1 || r.Day > clock.DaysIn(r.Year, r.Month):
		return fmt.Errorf("%w: day out of range", common.ErrValidation)
	}
	return nil
}

func validateAmounts(amounts ...*decimal.Decimal) error {
	for _, a := range amounts {
		if a != nil && a.IsNegative() {
			return fmt.Errorf("%w: amounts must not be negative", common.ErrValidation)
		}
	}
	return nil
}

// target resolves the church an entry is written for.
func target(caller models.Caller, in SaveInput) (churchID, church, region, state string, err error) {
	churchID, church, region, state = caller.ChurchID, caller.Church, caller.Region, caller.State
	if caller.IsMaster() && in.ChurchID != "" {
		churchID, church, region, state = in.ChurchID, in.Church, in.Region, in.State
	}
	if churchID == "" {
		return "", "", "", "", fmt.Errorf("%w: churchId is required", common.ErrValidation)
	}
	return churchID, church, region, state, nil
}

func (s *EntryService) findExisting(ctx context.Context, churchID string, r SlotRef) (*models.Entry, error) {
	e, err := s.repomanager.Entries(s.db).FindBySlot(ctx, churchID, r.Year, r.Month, r.Day, r.TimeSlot)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return e, err
}

func accessRequest(caller models.Caller, churchID string, r SlotRef, existing *models.Entry) access.Request {
	req := access.Request{
		ReporterID: caller.UserID,
		ChurchID:   churchID,
		Year:       r.Year,
		Month:      r.Month,
		Day:        r.Day,
		Slot:       r.TimeSlot,
	}
	if existing != nil {
		req.IsEdit = true
		req.ExistingCreatedAt = existing.CreatedAt
		req.ExistingEntryID = existing.EntryID
	}
	return req
}

// Check is a dry run of the access decision for the caller's own church.
func (s *EntryService) Check(ctx context.Context, caller models.Caller, r SlotRef) (access.Verdict, error) {
	if err := validateSlotRef(s.catalog, r); err != nil {
		return access.Verdict{}, err
	}
	churchID, _, _, _, err := target(caller, SaveInput{})
	if err != nil {
		return access.Verdict{}, err
	}
	existing, err := s.findExisting(ctx, churchID, r)
	if err != nil {
		return access.Verdict{}, err
	}
	return s.engine.DecideAt(ctx, accessRequest(caller, churchID, r, existing), s.clock.Now())
}

// total returns the sum of the sub-totals when any is supplied, otherwise the
// declared value.
func total(in SaveInput) decimal.NullDecimal {
	if in.Cash == nil && in.Pix == nil && in.Card == nil {
		if in.Value == nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(*in.Value)
	}
	sum := decimal.Zero
	for _, a := range []*decimal.Decimal{in.Cash, in.Pix, in.Card} {
		if a != nil {
			sum = sum.Add(*a)
		}
	}
	return decimal.NewNullDecimal(sum)
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Save runs the access decision and, when allowed, upserts the entry. A denial
// is returned as a verdict with a nil error.
func (s *EntryService) Save(ctx context.Context, caller models.Caller, in SaveInput) (SaveResult, error) {
	if err := validateSlotRef(s.catalog, in.SlotRef); err != nil {
		return SaveResult{}, err
	}
	if err := validateAmounts(in.Value, in.Cash, in.Pix, in.Card); err != nil {
		return SaveResult{}, err
	}
	churchID, church, region, state, err := target(caller, in)
	if err != nil {
		return SaveResult{}, err
	}

	existing, err := s.findExisting(ctx, churchID, in.SlotRef)
	if err != nil {
		return SaveResult{}, err
	}

	now := s.clock.Now()
	verdict, err := s.engine.DecideAt(ctx, accessRequest(caller, churchID, in.SlotRef, existing), now)
	if err != nil {
		return SaveResult{}, err
	}
	if !verdict.Allowed {
		return SaveResult{Verdict: verdict}, nil
	}

	entry := models.Entry{
		EntryID:  uuid.NewString(),
		Year:     in.Year,
		Month:    in.Month,
		Day:      in.Day,
		TimeSlot: in.TimeSlot,
		ChurchID: churchID,
		Church:   church,
		Region:   region,
		State:    state,
		Receipts: models.Receipts{},
	}
	if existing != nil {
		entry = *existing
	}
	if entry.CreatedAt == nil {
		entry.CreatedAt = &now
	}
	entry.UpdatedAt = &now
	entry.Value = total(in)
	entry.Cash, entry.Pix, entry.Card = orZero(in.Cash), orZero(in.Pix), orZero(in.Card)
	entry.Notes = in.Notes
	if existing == nil {
		entry.UserID = caller.UserID
		entry.UserName = caller.Name
	}

	if err := s.repomanager.Entries(s.db).Upsert(ctx, &entry); err != nil {
		return SaveResult{}, fmt.Errorf("error saving entry: %w", err)
	}

	s.audit.Log(ctx, caller, models.ActionSaveEntry, map[string]any{
		"entryId":  entry.EntryID,
		"churchId": churchID,
		"year":     in.Year,
		"month":    in.Month,
		"day":      in.Day,
		"timeSlot": in.TimeSlot,
		"value":    entry.Value.Decimal.String(),
		"isEdit":   existing != nil,
		"reason":   string(verdict.Reason),
		"ownerId":  entry.UserID,
		"editorId": caller.UserID,
	})

	return SaveResult{Verdict: verdict, Entry: &entry}, nil
}

// ListMonth returns the entries the caller may see, applying the lazy lock
// sweep first. The master additionally receives the per-slot aggregation.
func (s *EntryService) ListMonth(ctx context.Context, caller models.Caller, month, year int) (*MonthView, error) {
	if month < 1 || month > 12 || year < minYear {
		return nil, fmt.Errorf("%w: invalid month", common.ErrValidation)
	}

	repo := s.repomanager.Entries(s.db)

	list, err := repo.List(ctx, ledger.ScopeFilter(caller, month, year))
	if err != nil {
		return nil, err
	}

	closed, err := s.repomanager.Periods(s.db).IsClosed(ctx, month, year)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for _, i := range ledger.PlanLockSweep(list, now, closed, s.catalog) {
		e := &list[i]
		changed, err := repo.MarkTimeLocked(ctx, e.EntryID)
		if err != nil {
			s.logger.Warn(ctx, "lock sweep write-back failed", "entry_id", e.EntryID, "error", err)
			continue
		}
		e.TimeWindowLocked = true
		if changed {
			s.audit.Record(ctx, models.AuditEvent{
				Action: models.ActionTimeLock,
				Details: map[string]any{
					"entryId":  e.EntryID,
					"churchId": e.ChurchID,
					"day":      e.Day,
					"timeSlot": e.TimeSlot,
					"now":      now.Format(time.RFC3339),
				},
			})
		}
	}

	view := &MonthView{Month: month, Year: year, PeriodClosed: closed, Entries: make([]EntryView, 0, len(list))}
	for _, e := range list {
		st := access.ResolveLock(e, now)
		view.Entries = append(view.Entries, EntryView{Entry: e, Locked: st.Locked, LockReason: st.Reason})
	}
	if caller.IsMaster() {
		view.Aggregated = ledger.Aggregate(list)
	}
	return view, nil
}

// Delete removes an entry. Only the master may delete.
func (s *EntryService) Delete(ctx context.Context, caller models.Caller, entryID string) error {
	if !caller.IsMaster() {
		return common.ErrForbidden
	}

	repo := s.repomanager.Entries(s.db)
	e, err := repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, entryID); err != nil {
		return err
	}

	s.audit.Log(ctx, caller, models.ActionDeleteEntry, map[string]any{
		"entryId":  e.EntryID,
		"churchId": e.ChurchID,
		"year":     e.Year,
		"month":    e.Month,
		"day":      e.Day,
		"timeSlot": e.TimeSlot,
	})
	return nil
}
