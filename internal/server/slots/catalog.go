// Package slots holds the static catalog of daily service windows.
package slots

import (
	"fmt"
	"time"

	"github.com/iudp/ledger/internal/server/clock"
)

// Window is one named daily service slot. Start and End are minutes since
// civil midnight; the window covers [Start, End).
type Window struct {
	Slot  string
	Start int
	End   int
}

// StartOn returns the window start instant on the given civil day.
func (w Window) StartOn(d clock.Date) time.Time {
	return clock.Civil(d.Year, d.Month, d.Day, 0, 0, 0).Add(time.Duration(w.Start) * time.Minute)
}

// EndOn returns the window end instant on the given civil day.
func (w Window) EndOn(d clock.Date) time.Time {
	return clock.Civil(d.Year, d.Month, d.Day, 0, 0, 0).Add(time.Duration(w.End) * time.Minute)
}

// EndLabel formats the window end as "HH:MM".
func (w Window) EndLabel() string {
	return label(w.End)
}

// StartLabel formats the window start as "HH:MM".
func (w Window) StartLabel() string {
	return label(w.Start)
}

func label(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Catalog is an immutable lookup of windows by slot identifier.
type Catalog struct {
	order   []string
	windows map[string]Window
}

// NewCatalog builds a catalog from windows, preserving their order.
func NewCatalog(windows ...Window) Catalog {
	c := Catalog{windows: make(map[string]Window, len(windows))}
	for _, w := range windows {
		if _, dup := c.windows[w.Slot]; !dup {
			c.order = append(c.order, w.Slot)
		}
		c.windows[w.Slot] = w
	}
	return c
}

// Default returns the five service windows of the church day.
func Default() Catalog {
	return NewCatalog(
		Window{Slot: "08:00", Start: 8 * 60, End: 10 * 60},
		Window{Slot: "10:00", Start: 10 * 60, End: 12 * 60},
		Window{Slot: "12:00", Start: 12 * 60, End: 15 * 60},
		Window{Slot: "15:00", Start: 15 * 60, End: 19*60 + 30},
		Window{Slot: "19:30", Start: 19*60 + 30, End: 22 * 60},
	)
}

// Lookup returns the window for slot.
func (c Catalog) Lookup(slot string) (Window, bool) {
	w, ok := c.windows[slot]
	return w, ok
}

// Has reports whether slot is a known identifier.
func (c Catalog) Has(slot string) bool {
	_, ok := c.windows[slot]
	return ok
}

// Slots lists slot identifiers in catalog order.
func (c Catalog) Slots() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
