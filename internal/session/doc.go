// Package session implements the replay coordinator.
//
// The coordinator drives the decode loop single-threaded: one record is
// fully decoded and routed before the next read begins. Depth records go
// to the order book engine, trade records to the trade recorder,
// unrecognized kinds are counted and dropped. A two-state machine
// (building snapshot -> live) flips on the first trade and emits a
// one-time first-complete-book observation.
//
// Framing failures abort the loop immediately and are surfaced to the
// caller; state accumulated before the failure stays readable.
package session
