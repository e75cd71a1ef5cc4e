// Package clock supplies the current instant in the ledger's civil timezone.
//
// Every temporal decision (write windows, edit locks, lock sweeps, override
// expiry) reads time through a Clock so that one request sees one "now" and
// tests can pin it.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Zone is the single civil timezone for all slot and day arithmetic.
// It is a fixed UTC-3 offset with no daylight saving.
var Zone = time.FixedZone("UTC-3", -3*60*60)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real returns the production clock. Values are expressed in Zone.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().In(Zone) }

// Fixed is a settable clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.In(Zone)}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.In(Zone)
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Civil builds an instant from civil date and time components in Zone.
func Civil(year, month, day, hour, minute, second int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, Zone)
}

// MinuteOfDay returns hours*60+minutes of t in Zone.
func MinuteOfDay(t time.Time) int {
	t = t.In(Zone)
	return t.Hour()*60 + t.Minute()
}

// Date is a civil calendar day.
type Date struct {
	Year, Month, Day int
}

// DateOf returns the civil day of t in Zone.
func DateOf(t time.Time) Date {
	y, m, d := t.In(Zone).Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Valid reports whether the components name an existing calendar day.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= DaysIn(d.Year, d.Month)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DaysIn returns the number of days of month in year.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, Zone).Day()
}
