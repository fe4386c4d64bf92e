package trades

import "github.com/feedtools/bookreplay/internal/model"

// Log is the append-only trade log. Mutated only from the session
// coordinator's single-threaded call path, so it carries no locks.
type Log struct {
	entries []model.Trade
}

// NewLog creates an empty trade log.
func NewLog() *Log {
	return &Log{}
}

// Record appends one executed trade, converting wire units to decimals.
func (l *Log) Record(ev model.TradeEvent) {
	l.entries = append(l.entries, model.Trade{
		Time:   ev.Time,
		Price:  model.ToDecimal(ev.Price),
		Volume: model.ToDecimal(ev.Volume),
	})
}

// Last returns the most recently appended trade, or false on an empty log.
func (l *Log) Last() (model.Trade, bool) {
	if len(l.entries) == 0 {
		return model.Trade{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Count returns the number of recorded trades.
func (l *Log) Count() int {
	return len(l.entries)
}

// All returns a copy of the log in arrival order.
func (l *Log) All() []model.Trade {
	out := make([]model.Trade, len(l.entries))
	copy(out, l.entries)
	return out
}
