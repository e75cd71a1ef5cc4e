package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/slots"
)

// Overrides finds live overrides. Implementations return common.ErrorNotFound
// when nothing matches.
type Overrides interface {
	FindActiveSlot(ctx context.Context, q models.SlotQuery, now time.Time) (*models.SlotOverride, error)
	FindActiveEdit(ctx context.Context, entryID string, now time.Time) (*models.EditOverride, error)
}

// Periods reports the close flag of a month.
type Periods interface {
	IsClosed(ctx context.Context, month, year int) (bool, error)
}

// AuditSink records events on a best-effort basis.
type AuditSink interface {
	Record(ctx context.Context, ev models.AuditEvent)
}

// Request describes a single write attempt.
type Request struct {
	ReporterID        string
	ChurchID          string
	Year              int
	Month             int
	Day               int
	Slot              string
	IsEdit            bool
	ExistingCreatedAt *time.Time
	ExistingEntryID   string
}

func (r Request) date() clock.Date {
	return clock.Date{Year: r.Year, Month: r.Month, Day: r.Day}
}

// evaluation carries the request and the single instant all rules compare against.
type evaluation struct {
	req Request
	now time.Time
}

// rule returns matched=false to pass control to the next rule.
type rule func(ctx context.Context, ev *evaluation) (v Verdict, matched bool, err error)

// Engine evaluates write requests against an ordered rule cascade. The first
// rule that matches decides.
type Engine struct {
	clock     clock.Clock
	catalog   slots.Catalog
	overrides Overrides
	periods   Periods
	audit     AuditSink
	logger    logging.Logger
	rules     []rule
}

func NewEngine(c clock.Clock, catalog slots.Catalog, o Overrides, p Periods, a AuditSink, l logging.Logger) *Engine {
	e := &Engine{
		clock:     c,
		catalog:   catalog,
		overrides: o,
		periods:   p,
		audit:     a,
		logger:    l.With("module", "access_engine"),
	}
	e.rules = []rule{
		e.slotOverrideRule,
		e.closedPeriodRule,
		e.editLockRule,
		e.windowRule,
	}
	return e
}

// Decide runs the cascade at the current instant of the engine clock.
func (e *Engine) Decide(ctx context.Context, req Request) (Verdict, error) {
	return e.DecideAt(ctx, req, e.clock.Now())
}

// DecideAt runs the cascade with every rule comparing against now. Callers
// that stamp records pass the same instant. A non-nil error means a store
// could not be read; denials are always returned as a Verdict with a nil error.
func (e *Engine) DecideAt(ctx context.Context, req Request, now time.Time) (Verdict, error) {
	ev := &evaluation{req: req, now: now.In(clock.Zone)}

	for _, r := range e.rules {
		v, matched, err := r(ctx, ev)
		if err != nil {
			return Verdict{}, err
		}
		if matched {
			return v, nil
		}
	}

	v := deny(ReasonNoRuleMatched)
	e.denied(ctx, ev, v, nil)
	return v, nil
}

func (e *Engine) slotOverrideRule(ctx context.Context, ev *evaluation) (Verdict, bool, error) {
	q := models.SlotQuery{
		UserID:   ev.req.ReporterID,
		ChurchID: ev.req.ChurchID,
		Year:     ev.req.Year,
		Month:    ev.req.Month,
		Day:      ev.req.Day,
		TimeSlot: ev.req.Slot,
	}
	o, err := e.overrides.FindActiveSlot(ctx, q, ev.now)
	if errors.Is(err, common.ErrorNotFound) {
		return Verdict{}, false, nil
	}
	if err != nil {
		return Verdict{}, false, fmt.Errorf("slot override lookup: %w", err)
	}

	g := SlotGrant(*o)
	if !g.LiveAt(ev.now) {
		return Verdict{}, false, nil
	}
	e.overrideUsed(ctx, ev, g)
	return allow(ReasonOverrideActive), true, nil
}

func (e *Engine) closedPeriodRule(ctx context.Context, ev *evaluation) (Verdict, bool, error) {
	closed, err := e.periods.IsClosed(ctx, ev.req.Month, ev.req.Year)
	if err != nil {
		return Verdict{}, false, fmt.Errorf("period status lookup: %w", err)
	}
	if !closed {
		return Verdict{}, false, nil
	}
	v := deny(ReasonMonthClosed)
	e.denied(ctx, ev, v, nil)
	return v, true, nil
}

func (e *Engine) editLockRule(ctx context.Context, ev *evaluation) (Verdict, bool, error) {
	if !ev.req.IsEdit || ev.req.ExistingCreatedAt == nil {
		return Verdict{}, false, nil
	}
	deadline := ev.req.ExistingCreatedAt.Add(EditLockAfter)
	if !ev.now.After(deadline) {
		return Verdict{}, false, nil
	}

	if ev.req.ExistingEntryID != "" {
		o, err := e.overrides.FindActiveEdit(ctx, ev.req.ExistingEntryID, ev.now)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return Verdict{}, false, fmt.Errorf("edit override lookup: %w", err)
		default:
			if g := EditGrant(*o); g.LiveAt(ev.now) {
				e.overrideUsed(ctx, ev, g)
				return allow(ReasonOverrideActive), true, nil
			}
		}
	}

	v := deny(ReasonEditLocked)
	e.denied(ctx, ev, v, map[string]any{
		"createdAt":    ev.req.ExistingCreatedAt.Format(time.RFC3339),
		"editDeadline": deadline.Format(time.RFC3339),
	})
	return v, true, nil
}

func (e *Engine) windowRule(ctx context.Context, ev *evaluation) (Verdict, bool, error) {
	w, ok := e.catalog.Lookup(ev.req.Slot)
	if !ok {
		v := deny(ReasonInvalidTimeslot)
		e.denied(ctx, ev, v, nil)
		return v, true, nil
	}

	start := w.StartOn(ev.req.date())
	end := w.EndOn(ev.req.date())
	cutoff := end.Add(WriteGrace)

	if ev.now.After(start) && ev.now.Before(cutoff) {
		return allow(ReasonInWindow), true, nil
	}

	v := deny(ReasonWindowClosed)
	v.WindowEnd = w.EndLabel()
	e.denied(ctx, ev, v, map[string]any{
		"windowStart": start.Format(time.RFC3339),
		"windowEnd":   end.Format(time.RFC3339),
		"cutoff":      cutoff.Format(time.RFC3339),
	})
	return v, true, nil
}

func (e *Engine) overrideUsed(ctx context.Context, ev *evaluation, g Grant) {
	details := e.baseDetails(ev)
	details["overrideId"] = g.ID
	details["overrideKind"] = g.Kind.String()
	if g.ExpiresAt != nil {
		details["expiresAt"] = g.ExpiresAt.Format(time.RFC3339)
	}
	e.audit.Record(ctx, models.AuditEvent{
		Action:    models.ActionOverrideUsed,
		UserID:    ev.req.ReporterID,
		Timestamp: ev.now,
		Details:   details,
	})
}

func (e *Engine) denied(ctx context.Context, ev *evaluation, v Verdict, extra map[string]any) {
	details := e.baseDetails(ev)
	details["reason"] = string(v.Reason)
	for k, val := range extra {
		details[k] = val
	}
	e.logger.Debug(ctx, "write denied", "reason", v.Reason, "church_id", ev.req.ChurchID, "slot", ev.req.Slot)
	e.audit.Record(ctx, models.AuditEvent{
		Action:    models.ActionValidationFailure,
		UserID:    ev.req.ReporterID,
		Timestamp: ev.now,
		Details:   details,
	})
}

func (e *Engine) baseDetails(ev *evaluation) map[string]any {
	return map[string]any{
		"churchId": ev.req.ChurchID,
		"year":     ev.req.Year,
		"month":    ev.req.Month,
		"day":      ev.req.Day,
		"timeSlot": ev.req.Slot,
		"isEdit":   ev.req.IsEdit,
		"entryId":  ev.req.ExistingEntryID,
		"now":      ev.now.Format(time.RFC3339),
	}
}
