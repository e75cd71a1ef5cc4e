package rest

import (
	"context"

	"github.com/iudp/ledger/internal/server/access"
	"github.com/iudp/ledger/internal/server/ledger"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/services"
)

type fakeEntries struct {
	EntryService

	verdict   access.Verdict
	saveRes   services.SaveResult
	view      *services.MonthView
	err       error
	lastSave  services.SaveInput
	lastCheck services.SlotRef
	caller    models.Caller
	deleted   string
}

func (f *fakeEntries) Check(_ context.Context, c models.Caller, r services.SlotRef) (access.Verdict, error) {
	f.caller, f.lastCheck = c, r
	return f.verdict, f.err
}

func (f *fakeEntries) Save(_ context.Context, c models.Caller, in services.SaveInput) (services.SaveResult, error) {
	f.caller, f.lastSave = c, in
	return f.saveRes, f.err
}

func (f *fakeEntries) ListMonth(_ context.Context, c models.Caller, month, year int) (*services.MonthView, error) {
	f.caller = c
	return f.view, f.err
}

func (f *fakeEntries) Delete(_ context.Context, c models.Caller, id string) error {
	f.caller, f.deleted = c, id
	return f.err
}

type fakeUnlocks struct {
	UnlockService

	req        *models.UnlockRequest
	err        error
	lastInput  services.UnlockInput
	lastStatus models.UnlockStatus
	duration   int
}

func (f *fakeUnlocks) Request(_ context.Context, _ models.Caller, in services.UnlockInput) (*models.UnlockRequest, error) {
	f.lastInput = in
	return f.req, f.err
}

func (f *fakeUnlocks) List(_ context.Context, _ models.Caller, status models.UnlockStatus) ([]models.UnlockRequest, error) {
	f.lastStatus = status
	if f.err != nil {
		return nil, f.err
	}
	return []models.UnlockRequest{}, nil
}

func (f *fakeUnlocks) Approve(_ context.Context, _ models.Caller, id string, d int) (*models.UnlockRequest, error) {
	f.duration = d
	return f.req, f.err
}

func (f *fakeUnlocks) Reject(context.Context, models.Caller, string, string) (*models.UnlockRequest, error) {
	return f.req, f.err
}

func (f *fakeUnlocks) Delete(context.Context, models.Caller, string) error {
	return f.err
}

type fakePeriods struct {
	PeriodService

	err error
}

func (f *fakePeriods) Close(_ context.Context, c models.Caller, month, year int) (*models.PeriodStatus, error) {
	return &models.PeriodStatus{Month: month, Year: year, Closed: true, ClosedBy: c.UserID}, f.err
}

func (f *fakePeriods) Reopen(_ context.Context, c models.Caller, month, year int) (*models.PeriodStatus, error) {
	return &models.PeriodStatus{Month: month, Year: year, ReopenedBy: c.UserID}, f.err
}

func (f *fakePeriods) Status(_ context.Context, month, year int) (*models.PeriodStatus, error) {
	return &models.PeriodStatus{Month: month, Year: year}, f.err
}

type fakeReceipts struct {
	ReceiptService

	err error
}

func (f *fakeReceipts) PresignUpload(_ context.Context, _ models.Caller, in services.UploadInput) (*services.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.Upload{Receipt: models.Receipt{ReceiptID: "r1", Filename: in.Filename}, UploadURL: "https://s3.local/put"}, nil
}

func (f *fakeReceipts) PresignDownload(_ context.Context, _ models.Caller, entryID, receiptID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://s3.local/" + entryID + "/" + receiptID, nil
}

type fakeUsers struct {
	UserService

	err error
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*services.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.Session{Token: "t", User: &models.User{Name: in.Name, Email: in.Email}}, nil
}

func (f *fakeUsers) Login(context.Context, string, string) (*services.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.Session{Token: "t"}, nil
}

type fakeDashboard struct {
	DashboardService
}

func (fakeDashboard) Summary(_ context.Context, _ models.Caller, month, year int) (*ledger.Summary, error) {
	return &ledger.Summary{Month: month, Year: year}, nil
}

type fakeObservations struct {
	ObservationService

	text string
}

func (f *fakeObservations) Save(_ context.Context, c models.Caller, month, year int, text string) (*models.MonthObservation, error) {
	f.text = text
	return &models.MonthObservation{Month: month, Year: year, Observation: text, UpdatedBy: c.UserID}, nil
}

func (f *fakeObservations) Get(_ context.Context, month, year int) (*models.MonthObservation, error) {
	return &models.MonthObservation{ObsID: models.MonthID(year, month), Month: month, Year: year, Observation: f.text}, nil
}
