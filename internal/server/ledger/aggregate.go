package ledger

import (
	"github.com/iudp/ledger/internal/server/models"
	"github.com/shopspring/decimal"
)

// Contribution is one church's share in an aggregated slot.
type Contribution struct {
	EntryID     string          `json:"entryId"`
	ChurchID    string          `json:"churchId"`
	Church      string          `json:"church"`
	Value       decimal.Decimal `json:"value"`
	Cash        decimal.Decimal `json:"dinheiro"`
	Pix         decimal.Decimal `json:"pix"`
	Card        decimal.Decimal `json:"maquininha"`
	Notes       string          `json:"notes"`
	UserID      string          `json:"userId"`
	UserName    string          `json:"userName"`
	HasReceipts bool            `json:"hasReceipts"`
}

// AggregatedEntry is the master view of a (day, slot). Identity, lock flags
// and timestamps come from the first entry seen for the group; amounts are
// sums over all contributions.
type AggregatedEntry struct {
	models.Entry
	ChurchCount int            `json:"churchCount"`
	Breakdown   []Contribution `json:"breakdown"`
}

type slotKey struct {
	day  int
	slot string
}

// Aggregate groups entries by (day, slot) in first-encountered order.
func Aggregate(entries []models.Entry) []AggregatedEntry {
	out := make([]AggregatedEntry, 0)
	pos := make(map[slotKey]int)
	churches := make(map[slotKey]map[string]struct{})

	for _, e := range entries {
		k := slotKey{day: e.Day, slot: e.TimeSlot}
		i, seen := pos[k]
		if !seen {
			rep := e
			rep.Value = decimal.NewNullDecimal(decimal.Zero)
			rep.Cash, rep.Pix, rep.Card = decimal.Zero, decimal.Zero, decimal.Zero
			rep.Receipts = nil
			out = append(out, AggregatedEntry{Entry: rep})
			i = len(out) - 1
			pos[k] = i
			churches[k] = make(map[string]struct{})
		}

		g := &out[i]
		value := e.Value.Decimal
		if !e.Value.Valid {
			value = decimal.Zero
		}
		g.Value = decimal.NewNullDecimal(g.Value.Decimal.Add(value))
		g.Cash = g.Cash.Add(e.Cash)
		g.Pix = g.Pix.Add(e.Pix)
		g.Card = g.Card.Add(e.Card)

		churches[k][e.ChurchID] = struct{}{}
		g.ChurchCount = len(churches[k])

		g.Breakdown = append(g.Breakdown, Contribution{
			EntryID:     e.EntryID,
			ChurchID:    e.ChurchID,
			Church:      e.Church,
			Value:       value,
			Cash:        e.Cash,
			Pix:         e.Pix,
			Card:        e.Card,
			Notes:       e.Notes,
			UserID:      e.UserID,
			UserName:    e.UserName,
			HasReceipts: len(e.Receipts) > 0,
		})
	}
	return out
}
