package models

import "time"

type UnlockStatus string

const (
	UnlockPending  UnlockStatus = "pending"
	UnlockApproved UnlockStatus = "approved"
	UnlockRejected UnlockStatus = "rejected"
)

// UnlockRequest asks the master to reopen a slot or a specific entry.
type UnlockRequest struct {
	RequestID       string       `json:"requestId"`
	UserID          string       `json:"userId"`
	UserName        string       `json:"userName"`
	ChurchID        string       `json:"churchId"`
	Church          string       `json:"church"`
	EntryID         *string      `json:"entryId"`
	Year            int          `json:"year"`
	Month           int          `json:"month"`
	Day             int          `json:"day"`
	TimeSlot        string       `json:"timeSlot"`
	Reason          string       `json:"reason"`
	Status          UnlockStatus `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
	DecidedBy       string       `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time   `json:"decidedAt,omitempty"`
	UnlockedUntil   *time.Time   `json:"unlockedUntil,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
}
