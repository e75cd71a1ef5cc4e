// Package ledger holds the pure read-side rules of the offering ledger:
// who sees which entries, when a slot becomes locked for display, how
// entries roll up for the master view and how unlock requests move between
// states. Nothing here touches storage.
package ledger
