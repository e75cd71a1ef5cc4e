package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one reported offering for a (church, day, slot).
type Entry struct {
	EntryID          string              `json:"entryId"`
	Year             int                 `json:"year"`
	Month            int                 `json:"month"`
	Day              int                 `json:"day"`
	TimeSlot         string              `json:"timeSlot"`
	Value            decimal.NullDecimal `json:"value"`
	Cash             decimal.Decimal     `json:"dinheiro"`
	Pix              decimal.Decimal     `json:"pix"`
	Card             decimal.Decimal     `json:"maquininha"`
	Notes            string              `json:"notes"`
	UserID           string              `json:"userId"`
	UserName         string              `json:"userName"`
	ChurchID         string              `json:"churchId"`
	Church           string              `json:"church"`
	Region           string              `json:"region"`
	State            string              `json:"state"`
	CreatedAt        *time.Time          `json:"createdAt"`
	UpdatedAt        *time.Time          `json:"updatedAt"`
	TimeWindowLocked bool                `json:"timeWindowLocked"`
	MasterUnlocked   bool                `json:"masterUnlocked"`
	UnlockedUntil    *time.Time          `json:"unlockedUntil"`
	Receipts         Receipts            `json:"receipts"`
}

// HasValue reports whether a total has been recorded (zero counts).
func (e *Entry) HasValue() bool {
	return e.Value.Valid
}

// Receipt references an uploaded proof-of-payment file in object storage.
type Receipt struct {
	ReceiptID  string    `json:"receiptId"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"storageKey"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Receipts is stored as a JSONB array.
type Receipts []Receipt

func (r Receipts) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Receipt(r))
}

func (r *Receipts) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("receipts: unsupported column type")
	}
	return json.Unmarshal(b, (*[]Receipt)(r))
}

// EntryFilter narrows an entry listing. Empty string fields are ignored,
// except that a Region always binds State, even an empty one.
type EntryFilter struct {
	Month    int
	Year     int
	ChurchID string
	Region   string
	State    string
	UserID   string
}
