package access

import (
	"time"

	"github.com/iudp/ledger/internal/server/models"
)

// GrantKind distinguishes the three ways the master can lift a lock.
type GrantKind int

const (
	// GrantSlot lifts the window rule for a (day, slot) for a reporter or church.
	GrantSlot GrantKind = iota + 1
	// GrantEdit lifts the one-hour edit lock for a specific entry.
	GrantEdit
	// GrantEntry is the master-unlock flag stored on the entry itself.
	GrantEntry
)

func (k GrantKind) String() string {
	switch k {
	case GrantSlot:
		return "slot"
	case GrantEdit:
		return "edit"
	case GrantEntry:
		return "entry"
	default:
		return "unknown"
	}
}

// Grant is a time-bounded permission. A nil ExpiresAt never expires.
type Grant struct {
	Kind      GrantKind
	ID        string
	ExpiresAt *time.Time
}

// LiveAt reports whether the grant is still in force at now.
//
// Slot and edit grants require the expiry to be strictly after now. The
// entry flag stays unlocked up to and including its expiry instant.
func (g Grant) LiveAt(now time.Time) bool {
	if g.ExpiresAt == nil {
		return true
	}
	if g.Kind == GrantEntry {
		return !now.After(*g.ExpiresAt)
	}
	return g.ExpiresAt.After(now)
}

func SlotGrant(o models.SlotOverride) Grant {
	exp := o.ExpiresAt
	return Grant{Kind: GrantSlot, ID: o.OverrideID, ExpiresAt: &exp}
}

func EditGrant(o models.EditOverride) Grant {
	exp := o.ExpiresAt
	return Grant{Kind: GrantEdit, ID: o.OverrideID, ExpiresAt: &exp}
}

// EntryGrant returns the master-unlock grant carried by e, if any.
func EntryGrant(e models.Entry) (Grant, bool) {
	if !e.MasterUnlocked {
		return Grant{}, false
	}
	return Grant{Kind: GrantEntry, ID: e.EntryID, ExpiresAt: e.UnlockedUntil}, true
}
