package ledger

import "github.com/iudp/ledger/internal/server/models"

// ScopeFilter builds the entry filter for what c may see in a month. A
// restricted scope whose attribute is missing falls back to the caller's own
// entries.
func ScopeFilter(c models.Caller, month, year int) models.EntryFilter {
	f := models.EntryFilter{Month: month, Year: year}

	if unrestricted(c) {
		return f
	}

	switch {
	case c.Scope == models.ScopeState && c.State != "":
		f.State = c.State
	case c.Scope == models.ScopeRegion && c.Region != "":
		f.Region = c.Region
		f.State = c.State
	case c.Scope == models.ScopeChurch && c.ChurchID != "":
		f.ChurchID = c.ChurchID
	default:
		f.UserID = c.UserID
	}
	return f
}

func unrestricted(c models.Caller) bool {
	return c.IsMaster() || c.Scope == models.ScopeGlobal
}

// Visible reports whether e passes the scope of c. It mirrors ScopeFilter for
// single-record checks such as receipts and deletions.
func Visible(c models.Caller, e models.Entry) bool {
	if unrestricted(c) {
		return true
	}

	f := ScopeFilter(c, e.Month, e.Year)
	switch {
	case f.Region != "":
		return f.Region == e.Region && f.State == e.State
	case f.State != "":
		return f.State == e.State
	case f.ChurchID != "":
		return f.ChurchID == e.ChurchID
	default:
		return f.UserID != "" && f.UserID == e.UserID
	}
}
