package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/feedtools/bookreplay/internal/model"
)

const sideDegree = 32

// Book is a two-sided order book keyed by raw fixed-point price.
// Levels stay in raw wire units internally; queries return decimals.
type Book struct {
	bids *btree.Map[int64, int64]
	asks *btree.Map[int64, int64]
}

// New creates an empty book.
func New() *Book {
	return &Book{
		bids: btree.NewMap[int64, int64](sideDegree),
		asks: btree.NewMap[int64, int64](sideDegree),
	}
}

// Apply mutates the book with one depth update.
//
// Order matters: the Clear flag empties both sides before the record's own
// upsert or delete. Side selection is "Buy bit means bids, anything else
// means asks" — a record with both or neither of Buy/Sell set goes to the
// ask side and is not an error.
func (b *Book) Apply(u model.DepthUpdate) {
	if u.Flags.Has(model.FlagClear) {
		b.Clear()
	}

	side := b.asks
	if u.Flags.Has(model.FlagBuy) {
		side = b.bids
	}

	if u.Volume > 0 {
		side.Set(u.Price, u.Volume)
	} else {
		side.Delete(u.Price)
	}
}

// Clear discards every price level on both sides.
func (b *Book) Clear() {
	b.bids = btree.NewMap[int64, int64](sideDegree)
	b.asks = btree.NewMap[int64, int64](sideDegree)
}

// BestBid returns the highest bid price, or false on an empty side.
func (b *Book) BestBid() (decimal.Decimal, bool) {
	price, _, ok := b.bids.Max()
	if !ok {
		return decimal.Decimal{}, false
	}
	return model.ToDecimal(price), true
}

// BestAsk returns the lowest ask price, or false on an empty side.
func (b *Book) BestAsk() (decimal.Decimal, bool) {
	price, _, ok := b.asks.Min()
	if !ok {
		return decimal.Decimal{}, false
	}
	return model.ToDecimal(price), true
}

// BidVolume returns the resting volume at a raw bid price.
func (b *Book) BidVolume(rawPrice int64) (decimal.Decimal, bool) {
	vol, ok := b.bids.Get(rawPrice)
	if !ok {
		return decimal.Decimal{}, false
	}
	return model.ToDecimal(vol), true
}

// AskVolume returns the resting volume at a raw ask price.
func (b *Book) AskVolume(rawPrice int64) (decimal.Decimal, bool) {
	vol, ok := b.asks.Get(rawPrice)
	if !ok {
		return decimal.Decimal{}, false
	}
	return model.ToDecimal(vol), true
}

// BidCount returns the number of bid levels.
func (b *Book) BidCount() int {
	return b.bids.Len()
}

// AskCount returns the number of ask levels.
func (b *Book) AskCount() int {
	return b.asks.Len()
}

// BidLevels returns all bid levels in descending price order.
func (b *Book) BidLevels() []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, b.bids.Len())
	b.bids.Reverse(func(price, vol int64) bool {
		levels = append(levels, model.PriceLevel{
			Price:  model.ToDecimal(price),
			Volume: model.ToDecimal(vol),
		})
		return true
	})
	return levels
}

// AskLevels returns all ask levels in ascending price order.
func (b *Book) AskLevels() []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, b.asks.Len())
	b.asks.Scan(func(price, vol int64) bool {
		levels = append(levels, model.PriceLevel{
			Price:  model.ToDecimal(price),
			Volume: model.ToDecimal(vol),
		})
		return true
	})
	return levels
}
