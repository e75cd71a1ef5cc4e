package models

import "time"

// SlotOverride permits writes to one (day, slot) until ExpiresAt for a
// specific reporter or any reporter of a church.
type SlotOverride struct {
	OverrideID string    `json:"overrideId"`
	UserID     string    `json:"userId"`
	ChurchID   string    `json:"churchId"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Day        int       `json:"day"`
	TimeSlot   string    `json:"timeSlot"`
	ExpiresAt  time.Time `json:"expiresAt"`
	RequestID  string    `json:"requestId,omitempty"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EditOverride permits editing a specific existing entry until ExpiresAt.
type EditOverride struct {
	OverrideID string    `json:"overrideId"`
	EntryID    string    `json:"entryId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	RequestID  string    `json:"requestId,omitempty"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SlotQuery identifies the (who, when, which slot) an override must match.
type SlotQuery struct {
	UserID   string
	ChurchID string
	Year     int
	Month    int
	Day      int
	TimeSlot string
}
