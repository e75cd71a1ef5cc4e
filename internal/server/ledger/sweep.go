package ledger

import (
	"time"

	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/slots"
)

// DisplayGrace is added to a window end before the display sweep locks it.
// It is independent of access.WriteGrace.
const DisplayGrace = 0 * time.Minute

// NeedsTimeLock reports whether e should be persisted as time-window locked
// at now. Entries already locked, master-unlocked or with an unknown slot are
// left alone.
func NeedsTimeLock(e models.Entry, now time.Time, catalog slots.Catalog) bool {
	if e.TimeWindowLocked || e.MasterUnlocked {
		return false
	}

	today := clock.DateOf(now)
	day := clock.Date{Year: e.Year, Month: e.Month, Day: e.Day}

	if day.Before(today) {
		return true
	}
	if day != today {
		return false
	}

	w, ok := catalog.Lookup(e.TimeSlot)
	if !ok {
		return false
	}
	graceMinutes := int(DisplayGrace / time.Minute)
	return clock.MinuteOfDay(now) >= w.End+graceMinutes
}

// PlanLockSweep returns the indexes of entries to flip to time-window locked.
// Nothing is planned while the period is closed.
func PlanLockSweep(entries []models.Entry, now time.Time, periodClosed bool, catalog slots.Catalog) []int {
	if periodClosed {
		return nil
	}
	var idx []int
	for i := range entries {
		if NeedsTimeLock(entries[i], now, catalog) {
			idx = append(idx, i)
		}
	}
	return idx
}
