package access

import (
	"time"

	"github.com/iudp/ledger/internal/server/models"
)

// LockReason explains a display lock state.
type LockReason string

const (
	LockOverrideActive  LockReason = "override_active"
	LockOverrideExpired LockReason = "override_expired"
	LockTimeWindow      LockReason = "time_window"
	LockOneHourEdit     LockReason = "one_hour_edit"
)

// LockState is what clients render next to an entry.
type LockState struct {
	Locked bool       `json:"locked"`
	Reason LockReason `json:"reason,omitempty"`
}

// ResolveLock derives the display lock state of a stored entry at now. It
// never writes.
//
// A master unlock dominates every other flag: while live the entry is
// unlocked, once expired it stays locked with override_expired even if the
// time-window flag is also set.
func ResolveLock(e models.Entry, now time.Time) LockState {
	if g, ok := EntryGrant(e); ok {
		if g.LiveAt(now) {
			return LockState{Locked: false, Reason: LockOverrideActive}
		}
		return LockState{Locked: true, Reason: LockOverrideExpired}
	}

	if e.TimeWindowLocked {
		return LockState{Locked: true, Reason: LockTimeWindow}
	}

	if e.CreatedAt != nil && e.HasValue() && now.After(e.CreatedAt.Add(EditLockAfter)) {
		return LockState{Locked: true, Reason: LockOneHourEdit}
	}

	return LockState{Locked: false}
}
