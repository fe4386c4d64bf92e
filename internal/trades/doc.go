// Package trades implements the trade recorder: an append-only, ordered
// log of executed trades.
//
// Entries are stored in arrival order and never removed. Trade ids are not
// deduplicated — duplicate ids produce distinct entries.
package trades
