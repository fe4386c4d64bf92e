package model

import "github.com/shopspring/decimal"

// -----------------------------------------------------------------------------
// Wire Constants
// -----------------------------------------------------------------------------

// Kind identifies the shape of a capture record.
type Kind int16

const (
	KindDepth     Kind = 0 // Order book depth update
	KindTrade     Kind = 1 // Executed trade
	KindSymbol    Kind = 2 // Instrument metadata (skipped)
	KindCandle    Kind = 3 // Aggregated candle (skipped)
	KindCandleEnd Kind = 4 // Candle close marker (skipped)
)

// String returns a human-readable kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindDepth:
		return "depth"
	case KindTrade:
		return "trade"
	case KindSymbol:
		return "symbol"
	case KindCandle:
		return "candle"
	case KindCandleEnd:
		return "candle_end"
	default:
		return "unknown"
	}
}

// Flags is the depth-update bitmask.
type Flags uint8

const (
	FlagBuy              Flags = 1 // Update targets the bid side
	FlagSell             Flags = 2 // Update targets the ask side
	FlagClear            Flags = 4 // Empty both sides before applying
	FlagEndOfTransaction Flags = 8 // Batch boundary marker, preserved but not acted on
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// Scale is the number of fractional decimal digits in wire prices and volumes.
// A raw value of 10050000000 is 100.50 in real units.
const Scale = 8

// ToDecimal converts a raw fixed-point wire value to its exact decimal form.
func ToDecimal(raw int64) decimal.Decimal {
	return decimal.New(raw, -Scale)
}

// FromDecimal converts a decimal back to raw fixed-point form.
// Fractional digits beyond the scale are truncated.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Shift(Scale).IntPart()
}

// -----------------------------------------------------------------------------
// Wire Record Types
// -----------------------------------------------------------------------------

// Record byte lengths on the wire, header included.
const (
	HeaderSize = 12
	DepthSize  = 29
	TradeSize  = 37
)

// Header is the fixed 12-byte prefix shared by every record.
// Wire order, little-endian: Kind (2B signed), Size (2B unsigned), Time (8B signed).
type Header struct {
	Kind Kind   // Record shape tag
	Size uint16 // Total record length including this header
	Time int64  // Event timestamp
}

// DepthUpdate is an incremental order book change: one price level upsert
// or delete, optionally preceded by a full clear of both sides.
type DepthUpdate struct {
	Header
	Price  int64 // Fixed-point, 1e-8 units
	Volume int64 // Fixed-point, 1e-8 units; <= 0 deletes the level
	Flags  Flags
}

// TradeEvent is an executed transaction.
type TradeEvent struct {
	Header
	ID     int64 // Exchange-assigned trade id; uniqueness is not enforced
	Price  int64 // Fixed-point, 1e-8 units
	Volume int64 // Fixed-point, 1e-8 units
	Type   byte  // Opaque classification tag, passed through unchanged
}

// -----------------------------------------------------------------------------
// Derived Types
// -----------------------------------------------------------------------------

// Trade is a trade-log entry in real units. Immutable once appended.
type Trade struct {
	Time   int64
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// PriceLevel is one order book level in real units.
type PriceLevel struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}
