package models

import "time"

// Audit actions.
const (
	ActionOverrideUsed      = "override_used"
	ActionValidationFailure = "validation_failure"
	ActionSaveEntry         = "save_entry"
	ActionDeleteEntry       = "delete_entry"
	ActionTimeLock          = "time_window_lock"
	ActionUnlockRequest     = "unlock_request"
	ActionUnlockApprove     = "unlock_approve"
	ActionUnlockReject      = "unlock_reject"
	ActionUnlockDelete      = "unlock_delete"
	ActionCloseMonth        = "close_month"
	ActionReopenMonth       = "reopen_month"
	ActionUploadReceipt     = "upload_receipt"
	ActionSaveObservation   = "save_month_observation"
	ActionRegister          = "register"
	ActionLogin             = "login"
)

// AuditEvent is an append-only record of a significant action.
type AuditEvent struct {
	LogID     string         `json:"logId"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
}
