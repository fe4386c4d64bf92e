package session

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feedtools/bookreplay/internal/book"
	"github.com/feedtools/bookreplay/internal/codec"
	"github.com/feedtools/bookreplay/internal/model"
	"github.com/feedtools/bookreplay/internal/trades"
)

// State is the snapshot-readiness phase of a session.
type State int

const (
	// StateBuildingSnapshot covers the period before the first trade,
	// while depth records are assumed to replay the initial book.
	StateBuildingSnapshot State = iota

	// StateLive starts with the first trade record.
	StateLive
)

// String returns the state name for logs.
func (s State) String() string {
	if s == StateLive {
		return "live"
	}
	return "building_snapshot"
}

// Stats are the aggregate counters of one session.
type Stats struct {
	Processed    uint64 // Every decoded record, including skipped kinds
	DepthUpdates uint64
	Trades       uint64
	Skipped      uint64 // Unrecognized kinds
	State        State
}

// FirstBook is the one-time observation emitted when the first trade
// completes the snapshot-building phase. Reporting side effect only.
type FirstBook struct {
	Time    int64 // Header time of the trade that triggered it
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
	HasBid  bool
	HasAsk  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithResetOnClear makes a Clear-flagged depth record drop the session
// back to StateBuildingSnapshot, so the next trade fires a fresh
// first-book observation. Off by default: once live, stays live.
func WithResetOnClear(reset bool) Option {
	return func(c *Coordinator) { c.resetOnClear = reset }
}

// WithFirstBookFunc registers the first-complete-book callback.
func WithFirstBookFunc(fn func(FirstBook)) Option {
	return func(c *Coordinator) { c.onFirstBook = fn }
}

// WithDepthObserver registers a hook invoked after each applied depth
// update. Used to feed archive writers and publishers without coupling.
func WithDepthObserver(fn func(model.DepthUpdate)) Option {
	return func(c *Coordinator) { c.onDepth = fn }
}

// WithTradeObserver registers a hook invoked after each recorded trade.
func WithTradeObserver(fn func(model.TradeEvent)) Option {
	return func(c *Coordinator) { c.onTrade = fn }
}

// Coordinator routes decoded records to the book and trade log and owns
// the session state machine. Not safe for concurrent use; Run must be
// called once from a single goroutine.
type Coordinator struct {
	id     uuid.UUID
	logger *slog.Logger

	book   *book.Book
	trades *trades.Log

	resetOnClear bool
	onFirstBook  func(FirstBook)
	onDepth      func(model.DepthUpdate)
	onTrade      func(model.TradeEvent)

	state State
	stats Stats
}

// New creates a coordinator over the given book and trade log. The
// coordinator holds non-owning references: callers keep reading both
// after the run ends.
func New(b *book.Book, l *trades.Log, opts ...Option) *Coordinator {
	c := &Coordinator{
		id:     uuid.New(),
		logger: slog.Default(),
		book:   b,
		trades: l,
		state:  StateBuildingSnapshot,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the run identifier for this session.
func (c *Coordinator) ID() uuid.UUID {
	return c.id
}

// State returns the current snapshot-readiness phase.
func (c *Coordinator) State() State {
	return c.state
}

// Stats returns the counters accumulated so far.
func (c *Coordinator) Stats() Stats {
	stats := c.stats
	stats.State = c.state
	return stats
}

// Run drives the decode loop until clean end of stream, a framing
// failure, or context cancellation. The returned stats are valid in every
// case; a non-nil error means the stream did not complete normally.
// Each record is applied atomically: a cancelled context stops between
// records, never inside one.
func (c *Coordinator) Run(ctx context.Context, dec *codec.Decoder) (Stats, error) {
	c.logger.Info("session started",
		"run_id", c.id,
		"state", c.state,
	)

	for {
		if err := ctx.Err(); err != nil {
			return c.Stats(), err
		}

		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			stats := c.Stats()
			c.logger.Info("session finished",
				"run_id", c.id,
				"processed", stats.Processed,
				"depth_updates", stats.DepthUpdates,
				"trades", stats.Trades,
				"skipped", stats.Skipped,
				"state", stats.State,
			)
			return stats, nil
		}
		if err != nil {
			c.logger.Error("decode failed",
				"run_id", c.id,
				"processed", c.stats.Processed,
				"error", err,
			)
			return c.Stats(), err
		}

		c.route(rec)
		c.stats.Processed++
	}
}

// route applies one decoded record to the owning component.
func (c *Coordinator) route(rec codec.Record) {
	switch rec.Kind {
	case model.KindDepth:
		c.book.Apply(rec.Depth)
		c.stats.DepthUpdates++
		if c.resetOnClear && c.state == StateLive && rec.Depth.Flags.Has(model.FlagClear) {
			c.state = StateBuildingSnapshot
			c.logger.Debug("book cleared, rebuilding snapshot", "run_id", c.id)
		}
		if c.onDepth != nil {
			c.onDepth(rec.Depth)
		}

	case model.KindTrade:
		c.trades.Record(rec.Trade)
		c.stats.Trades++
		if c.state == StateBuildingSnapshot {
			c.state = StateLive
			c.emitFirstBook(rec.Trade.Time)
		}
		if c.onTrade != nil {
			c.onTrade(rec.Trade)
		}

	default:
		c.stats.Skipped++
	}
}

func (c *Coordinator) emitFirstBook(time int64) {
	obs := FirstBook{Time: time}
	obs.BestBid, obs.HasBid = c.book.BestBid()
	obs.BestAsk, obs.HasAsk = c.book.BestAsk()

	c.logger.Info("first complete book",
		"run_id", c.id,
		"best_bid", quoteAttr(obs.BestBid, obs.HasBid),
		"best_ask", quoteAttr(obs.BestAsk, obs.HasAsk),
	)

	if c.onFirstBook != nil {
		c.onFirstBook(obs)
	}
}

func quoteAttr(price decimal.Decimal, ok bool) string {
	if !ok {
		return "none"
	}
	return price.String()
}
