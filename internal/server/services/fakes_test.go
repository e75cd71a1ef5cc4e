package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/dbx"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/access"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/audit"
	"github.com/iudp/ledger/internal/server/repositories/entries"
	"github.com/iudp/ledger/internal/server/repositories/observations"
	"github.com/iudp/ledger/internal/server/repositories/overrides"
	"github.com/iudp/ledger/internal/server/repositories/periods"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
	"github.com/iudp/ledger/internal/server/repositories/unlockrequests"
	"github.com/iudp/ledger/internal/server/repositories/users"
	"github.com/iudp/ledger/internal/server/slots"
)

// -------- test fakes --------

type fakeEntriesRepo struct {
	entries.Repository

	bySlot    map[string]*models.Entry
	byID      map[string]*models.Entry
	list      []models.Entry
	listErr   error
	findErr   error
	upsertErr error
	lockErr   error
	unlockErr error
	appendErr error
	deleteErr error

	upserted  []models.Entry
	filters   []models.EntryFilter
	locked    []string
	unlocked  map[string]time.Time
	appended  []models.Receipt
	deleted   []string
	lockedSet map[string]bool
}

func slotKey(churchID string, year, month, day int, slot string) string {
	return fmt.Sprintf("%s|%04d-%02d-%02d|%s", churchID, year, month, day, slot)
}

func (f *fakeEntriesRepo) FindBySlot(ctx context.Context, churchID string, year, month, day int, slot string) (*models.Entry, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if e, ok := f.bySlot[slotKey(churchID, year, month, day, slot)]; ok {
		c := *e
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeEntriesRepo) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	if e, ok := f.byID[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeEntriesRepo) Upsert(ctx context.Context, e *models.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, *e)
	return nil
}

func (f *fakeEntriesRepo) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Entry, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeEntriesRepo) MarkTimeLocked(ctx context.Context, id string) (bool, error) {
	if f.lockErr != nil {
		return false, f.lockErr
	}
	f.locked = append(f.locked, id)
	if f.lockedSet == nil {
		f.lockedSet = map[string]bool{}
	}
	if f.lockedSet[id] {
		return false, nil
	}
	f.lockedSet[id] = true
	return true, nil
}

func (f *fakeEntriesRepo) SetMasterUnlock(ctx context.Context, id string, until time.Time) error {
	if f.unlockErr != nil {
		return f.unlockErr
	}
	if f.unlocked == nil {
		f.unlocked = map[string]time.Time{}
	}
	f.unlocked[id] = until
	return nil
}

func (f *fakeEntriesRepo) AppendReceipt(ctx context.Context, id string, r models.Receipt) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, r)
	return nil
}

func (f *fakeEntriesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeOverridesRepo struct {
	overrides.Repository

	slot      *models.SlotOverride
	edit      *models.EditOverride
	createErr error

	createdSlots []models.SlotOverride
	upsertEdits  []models.EditOverride
}

func (f *fakeOverridesRepo) FindActiveSlot(ctx context.Context, q models.SlotQuery, now time.Time) (*models.SlotOverride, error) {
	if f.slot != nil && f.slot.ExpiresAt.After(now) {
		return f.slot, nil
	}
	for i := range f.createdSlots {
		o := f.createdSlots[i]
		if (o.UserID == q.UserID || o.ChurchID == q.ChurchID) &&
			o.Year == q.Year && o.Month == q.Month && o.Day == q.Day && o.TimeSlot == q.TimeSlot &&
			o.ExpiresAt.After(now) {
			return &o, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeOverridesRepo) FindActiveEdit(ctx context.Context, entryID string, now time.Time) (*models.EditOverride, error) {
	if f.edit != nil && f.edit.EntryID == entryID && f.edit.ExpiresAt.After(now) {
		return f.edit, nil
	}
	for i := range f.upsertEdits {
		o := f.upsertEdits[i]
		if o.EntryID == entryID && o.ExpiresAt.After(now) {
			return &o, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeOverridesRepo) CreateSlot(ctx context.Context, o *models.SlotOverride) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createdSlots = append(f.createdSlots, *o)
	return nil
}

func (f *fakeOverridesRepo) UpsertEdit(ctx context.Context, o *models.EditOverride) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.upsertEdits = append(f.upsertEdits, *o)
	return nil
}

type fakePeriodsRepo struct {
	periods.Repository

	closed map[[2]int]bool
	err    error

	closedBy   string
	reopenedBy string
}

func (f *fakePeriodsRepo) IsClosed(ctx context.Context, month, year int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.closed[[2]int{month, year}], nil
}

func (f *fakePeriodsRepo) Get(ctx context.Context, month, year int) (*models.PeriodStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.PeriodStatus{Month: month, Year: year, Closed: f.closed[[2]int{month, year}], ClosedBy: f.closedBy, ReopenedBy: f.reopenedBy}, nil
}

func (f *fakePeriodsRepo) Close(ctx context.Context, month, year int, by string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.closed == nil {
		f.closed = map[[2]int]bool{}
	}
	f.closed[[2]int{month, year}] = true
	f.closedBy = by
	return nil
}

func (f *fakePeriodsRepo) Reopen(ctx context.Context, month, year int, by string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.closed == nil {
		f.closed = map[[2]int]bool{}
	}
	f.closed[[2]int{month, year}] = false
	f.reopenedBy = by
	return nil
}

type fakeRequestsRepo struct {
	unlockrequests.Repository

	byID      map[string]*models.UnlockRequest
	createErr error
	decideErr error

	created  []models.UnlockRequest
	decided  []models.UnlockRequest
	deleted  []string
	listArgs []string
}

func (f *fakeRequestsRepo) Create(ctx context.Context, r *models.UnlockRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *r)
	c := *r
	f.byID[r.RequestID] = &c
	return nil
}

func (f *fakeRequestsRepo) GetByID(ctx context.Context, id string) (*models.UnlockRequest, error) {
	if r, ok := f.byID[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRequestsRepo) List(ctx context.Context, status models.UnlockStatus, userID string) ([]models.UnlockRequest, error) {
	f.listArgs = append(f.listArgs, string(status)+"|"+userID)
	return []models.UnlockRequest{}, nil
}

func (f *fakeRequestsRepo) Decide(ctx context.Context, r *models.UnlockRequest) error {
	if f.decideErr != nil {
		return f.decideErr
	}
	f.decided = append(f.decided, *r)
	return nil
}

func (f *fakeRequestsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAuditRepo struct {
	audit.Repository

	mu     sync.Mutex
	err    error
	events []models.AuditEvent
}

func (f *fakeAuditRepo) Insert(ctx context.Context, ev *models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeUsersRepo struct {
	users.Repository

	byEmail   map[string]*models.User
	createErr error
	getErr    error

	created []models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, *u)
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type fakeObservationsRepo struct {
	observations.Repository

	stored *models.MonthObservation
	err    error
}

func (f *fakeObservationsRepo) Upsert(ctx context.Context, o *models.MonthObservation) error {
	if f.err != nil {
		return f.err
	}
	f.stored = o
	return nil
}

func (f *fakeObservationsRepo) Get(ctx context.Context, month, year int) (*models.MonthObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stored == nil {
		return nil, common.ErrorNotFound
	}
	return f.stored, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager

	e   *fakeEntriesRepo
	o   *fakeOverridesRepo
	p   *fakePeriodsRepo
	r   *fakeRequestsRepo
	a   *fakeAuditRepo
	u   *fakeUsersRepo
	obs *fakeObservationsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		e:   &fakeEntriesRepo{bySlot: map[string]*models.Entry{}, byID: map[string]*models.Entry{}},
		o:   &fakeOverridesRepo{},
		p:   &fakePeriodsRepo{closed: map[[2]int]bool{}},
		r:   &fakeRequestsRepo{byID: map[string]*models.UnlockRequest{}},
		a:   &fakeAuditRepo{},
		u:   &fakeUsersRepo{byEmail: map[string]*models.User{}},
		obs: &fakeObservationsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository { return m.e }
func (m *fakeRepoManager) Overrides(db dbx.DBTX) overrides.Repository { return m.o }
func (m *fakeRepoManager) Periods(db dbx.DBTX) periods.Repository { return m.p }
func (m *fakeRepoManager) UnlockRequests(db dbx.DBTX) unlockrequests.Repository { return m.r }
func (m *fakeRepoManager) Audit(db dbx.DBTX) audit.Repository { return m.a }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return m.u }
func (m *fakeRepoManager) Observations(db dbx.DBTX) observations.Repository { return m.obs }

// -------- helpers --------

var (
	pastor = models.Caller{UserID: "u1", Name: "Pr. Ana", Role: models.RolePastor, Scope: models.ScopeChurch,
		ChurchID: "c1", Church: "Sede", Region: "north", State: "SP"}
	master = models.Caller{UserID: "m1", Name: "Bispo", Role: models.RoleMaster, Scope: models.ScopeGlobal}
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type harness struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	rm    *fakeRepoManager
	clock *clock.Fixed
	audit *AuditService
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	clk := clock.NewFixed(now)
	return &harness{
		db:    db,
		mock:  mock,
		rm:    rm,
		clock: clk,
		audit: NewAuditService(db, rm, clk, logging.Nop()),
	}
}

func (h *harness) entryService() *EntryService {
	engine := access.NewEngine(h.clock, slots.Default(), h.rm.o, h.rm.p, h.audit, logging.Nop())
	return NewEntryService(h.db, h.rm, engine, h.clock, slots.Default(), h.audit, logging.Nop())
}

func (h *harness) unlockService() *UnlockService {
	return NewUnlockService(h.db, h.rm, h.clock, slots.Default(), NoopLocker{}, h.audit, logging.Nop())
}
