package ledger

import (
	"sort"

	"github.com/iudp/ledger/internal/server/models"
	"github.com/shopspring/decimal"
)

// DayTotal is the sum of all entries of a day.
type DayTotal struct {
	Day   int             `json:"day"`
	Value decimal.Decimal `json:"value"`
}

// SlotTotal is the sum of all entries of a slot across the month.
type SlotTotal struct {
	TimeSlot string          `json:"timeSlot"`
	Value    decimal.Decimal `json:"value"`
}

// Summary is the dashboard roll-up of a month.
type Summary struct {
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	Total        decimal.Decimal `json:"total"`
	Average      decimal.Decimal `json:"average"`
	EntryCount   int             `json:"entryCount"`
	DailyData    []DayTotal      `json:"dailyData"`
	TimeSlotData []SlotTotal     `json:"timeSlotData"`
}

// Summarize totals entries per day and per slot. Slots follow slotOrder;
// slots not listed there are appended alphabetically.
func Summarize(month, year int, entries []models.Entry, slotOrder []string) Summary {
	s := Summary{
		Month:        month,
		Year:         year,
		Total:        decimal.Zero,
		Average:      decimal.Zero,
		DailyData:    make([]DayTotal, 0),
		TimeSlotData: make([]SlotTotal, 0),
	}

	byDay := make(map[int]decimal.Decimal)
	bySlot := make(map[string]decimal.Decimal)
	for _, e := range entries {
		v := decimal.Zero
		if e.Value.Valid {
			v = e.Value.Decimal
		}
		s.Total = s.Total.Add(v)
		s.EntryCount++
		byDay[e.Day] = byDay[e.Day].Add(v)
		bySlot[e.TimeSlot] = bySlot[e.TimeSlot].Add(v)
	}
	if s.EntryCount > 0 {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.EntryCount))).Round(2)
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)
	for _, d := range days {
		s.DailyData = append(s.DailyData, DayTotal{Day: d, Value: byDay[d]})
	}

	seen := make(map[string]struct{}, len(bySlot))
	for _, slot := range slotOrder {
		if v, ok := bySlot[slot]; ok {
			s.TimeSlotData = append(s.TimeSlotData, SlotTotal{TimeSlot: slot, Value: v})
			seen[slot] = struct{}{}
		}
	}
	var rest []string
	for slot := range bySlot {
		if _, ok := seen[slot]; !ok {
			rest = append(rest, slot)
		}
	}
	sort.Strings(rest)
	for _, slot := range rest {
		s.TimeSlotData = append(s.TimeSlotData, SlotTotal{TimeSlot: slot, Value: bySlot[slot]})
	}
	return s
}
