package models

import (
	"fmt"
	"time"
)

// PeriodStatus is the close flag of a (month, year). A missing row means open.
type PeriodStatus struct {
	Month      int        `json:"month"`
	Year       int        `json:"year"`
	Closed     bool       `json:"closed"`
	ClosedBy   string     `json:"closedBy,omitempty"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	ReopenedBy string     `json:"reopenedBy,omitempty"`
	ReopenedAt *time.Time `json:"reopenedAt,omitempty"`
}

// MonthID renders the canonical "YYYY-MM-01" identifier of a month.
func MonthID(year, month int) string {
	return fmt.Sprintf("%04d-%02d-01", year, month)
}

// MonthObservation is the free-text note attached to a month.
type MonthObservation struct {
	ObsID       string    `json:"obsId"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Observation string    `json:"observation"`
	UpdatedBy   string    `json:"updatedBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
