package rest

import (
	"context"

	"github.com/iudp/ledger/internal/server/access"
	"github.com/iudp/ledger/internal/server/ledger"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/services"
)

type EntryService interface {
	Check(ctx context.Context, caller models.Caller, r services.SlotRef) (access.Verdict, error)
	Save(ctx context.Context, caller models.Caller, in services.SaveInput) (services.SaveResult, error)
	ListMonth(ctx context.Context, caller models.Caller, month, year int) (*services.MonthView, error)
	Delete(ctx context.Context, caller models.Caller, entryID string) error
}

type UnlockService interface {
	Request(ctx context.Context, caller models.Caller, in services.UnlockInput) (*models.UnlockRequest, error)
	List(ctx context.Context, caller models.Caller, status models.UnlockStatus) ([]models.UnlockRequest, error)
	Approve(ctx context.Context, caller models.Caller, requestID string, durationMinutes int) (*models.UnlockRequest, error)
	Reject(ctx context.Context, caller models.Caller, requestID, reason string) (*models.UnlockRequest, error)
	Delete(ctx context.Context, caller models.Caller, requestID string) error
}

type PeriodService interface {
	Close(ctx context.Context, caller models.Caller, month, year int) (*models.PeriodStatus, error)
	Reopen(ctx context.Context, caller models.Caller, month, year int) (*models.PeriodStatus, error)
	Status(ctx context.Context, month, year int) (*models.PeriodStatus, error)
}

type ReceiptService interface {
	PresignUpload(ctx context.Context, caller models.Caller, in services.UploadInput) (*services.Upload, error)
	PresignDownload(ctx context.Context, caller models.Caller, entryID, receiptID string) (string, error)
}

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

type DashboardService interface {
	Summary(ctx context.Context, caller models.Caller, month, year int) (*ledger.Summary, error)
}

type ObservationService interface {
	Save(ctx context.Context, caller models.Caller, month, year int, text string) (*models.MonthObservation, error)
	Get(ctx context.Context, month, year int) (*models.MonthObservation, error)
}

// Services bundles the operations served by the router.
type Services struct {
	Users        UserService
	Entries      EntryService
	Unlocks      UnlockService
	Periods      PeriodService
	Receipts     ReceiptService
	Dashboard    DashboardService
	Observations ObservationService
}
