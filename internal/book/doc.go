// Package book implements the order book engine.
//
// A Book holds two price-keyed sides (bids and asks) and applies depth
// updates with clear/upsert/delete semantics: a Clear flag empties both
// sides before the same record's own change, positive volume overwrites a
// level, non-positive volume removes it. Best-of-book queries reflect the
// latest update synchronously.
//
// The book carries no locks: it is mutated only from the session
// coordinator's single-threaded decode loop.
package book
