// Package archive implements optional batch persistence of decoded
// records to PostgreSQL/TimescaleDB.
//
// Writers:
//   - Depth writer (depth_updates table)
//   - Trade writer (trade_events table)
//
// Both use append-only semantics (never update, only insert). Prices and
// volumes are stored as raw 1e-8 fixed-point integers, exactly as they
// appear on the wire. Rows carry the session run id and the record's
// arrival sequence so a capture can be reconstructed in order.
//
// The replay core itself never touches the database; writers consume
// decoded records through feed buffers fed by session observers.
package archive
