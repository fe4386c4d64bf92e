package publish

import (
	"github.com/feedtools/bookreplay/internal/model"
	"github.com/feedtools/bookreplay/internal/session"
)

// Event is the wire shape sent to subscribers. Type selects which fields
// are populated: "depth", "trade", or "first_book".
type Event struct {
	Type string `json:"type"`
	Time int64  `json:"time"`

	// Depth fields
	Price  string `json:"price,omitempty"`
	Volume string `json:"volume,omitempty"`
	Side   string `json:"side,omitempty"`
	Clear  bool   `json:"clear,omitempty"`

	// First-book fields
	BestBid string `json:"best_bid,omitempty"`
	BestAsk string `json:"best_ask,omitempty"`
}

// DepthEvent converts a depth update to its broadcast shape.
func DepthEvent(u model.DepthUpdate) Event {
	side := "ask"
	if u.Flags.Has(model.FlagBuy) {
		side = "bid"
	}
	return Event{
		Type:   "depth",
		Time:   u.Time,
		Price:  model.ToDecimal(u.Price).String(),
		Volume: model.ToDecimal(u.Volume).String(),
		Side:   side,
		Clear:  u.Flags.Has(model.FlagClear),
	}
}

// TradeEvent converts a trade event to its broadcast shape.
func TradeEvent(ev model.TradeEvent) Event {
	return Event{
		Type:   "trade",
		Time:   ev.Time,
		Price:  model.ToDecimal(ev.Price).String(),
		Volume: model.ToDecimal(ev.Volume).String(),
	}
}

// FirstBookEvent converts the first-complete-book observation to its
// broadcast shape. Missing quotes are empty strings.
func FirstBookEvent(fb session.FirstBook) Event {
	ev := Event{
		Type: "first_book",
		Time: fb.Time,
	}
	if fb.HasBid {
		ev.BestBid = fb.BestBid.String()
	}
	if fb.HasAsk {
		ev.BestAsk = fb.BestAsk.String()
	}
	return ev
}
