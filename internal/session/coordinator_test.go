package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/feedtools/bookreplay/internal/book"
	"github.com/feedtools/bookreplay/internal/codec"
	"github.com/feedtools/bookreplay/internal/model"
	"github.com/feedtools/bookreplay/internal/trades"
)

func buyDepth(time, price, volume int64) model.DepthUpdate {
	return model.DepthUpdate{Header: model.Header{Time: time}, Price: price, Volume: volume, Flags: model.FlagBuy}
}

func sellDepth(time, price, volume int64) model.DepthUpdate {
	return model.DepthUpdate{Header: model.Header{Time: time}, Price: price, Volume: volume, Flags: model.FlagSell}
}

func run(t *testing.T, stream []byte, opts ...Option) (*book.Book, *trades.Log, *Coordinator, Stats, error) {
	t.Helper()
	b := book.New()
	l := trades.NewLog()
	c := New(b, l, opts...)
	stats, err := c.Run(context.Background(), codec.NewDecoder(bytes.NewReader(stream)))
	return b, l, c, stats, err
}

func TestRun_EndToEnd(t *testing.T) {
	// The worked example: two depth records, one trade.
	var stream []byte
	stream = codec.AppendDepth(stream, buyDepth(1, 10050000000, 200000000))
	stream = codec.AppendDepth(stream, sellDepth(2, 10060000000, 150000000))
	stream = codec.AppendTrade(stream, model.TradeEvent{
		Header: model.Header{Time: 3},
		ID:     1,
		Price:  10055000000,
		Volume: 50000000,
	})

	b, l, _, stats, err := run(t, stream)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Processed != 3 {
		t.Errorf("Processed = %d, want 3", stats.Processed)
	}
	if stats.DepthUpdates != 2 || stats.Trades != 1 || stats.Skipped != 0 {
		t.Errorf("counters = %+v, want 2 depth / 1 trade / 0 skipped", stats)
	}
	if stats.State != StateLive {
		t.Errorf("State = %v, want StateLive", stats.State)
	}

	bid, ok := b.BestBid()
	if !ok || bid.String() != "100.5" {
		t.Errorf("BestBid() = %s, %v, want 100.5", bid, ok)
	}
	ask, ok := b.BestAsk()
	if !ok || ask.String() != "100.6" {
		t.Errorf("BestAsk() = %s, %v, want 100.6", ask, ok)
	}
	vol, _ := b.BidVolume(10050000000)
	if vol.String() != "2" {
		t.Errorf("bid volume = %s, want 2", vol)
	}

	last, ok := l.Last()
	if !ok {
		t.Fatal("Last() reported empty")
	}
	if last.Time != 3 || last.Price.String() != "100.55" || last.Volume.String() != "0.5" {
		t.Errorf("Last() = {%d %s %s}, want {3 100.55 0.5}", last.Time, last.Price, last.Volume)
	}
}

func TestRun_ClearOnPopulatedBook(t *testing.T) {
	var stream []byte
	stream = codec.AppendDepth(stream, buyDepth(1, 10050000000, 200000000))
	stream = codec.AppendDepth(stream, sellDepth(2, 10060000000, 150000000))
	stream = codec.AppendDepth(stream, model.DepthUpdate{
		Header: model.Header{Time: 3},
		Price:  10000000000,
		Volume: 100000000,
		Flags:  model.FlagBuy | model.FlagClear,
	})

	b, _, _, _, err := run(t, stream)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := b.BidCount(); got != 1 {
		t.Errorf("BidCount() = %d, want 1", got)
	}
	if got := b.AskCount(); got != 0 {
		t.Errorf("AskCount() = %d, want 0", got)
	}
	bid, ok := b.BestBid()
	if !ok || bid.String() != "100" {
		t.Errorf("BestBid() = %s, %v, want 100", bid, ok)
	}
	vol, _ := b.BidVolume(10000000000)
	if vol.String() != "1" {
		t.Errorf("bid volume = %s, want 1", vol)
	}
}

func TestRun_FirstBookObservation(t *testing.T) {
	var stream []byte
	stream = codec.AppendDepth(stream, buyDepth(1, 10050000000, 200000000))
	stream = codec.AppendDepth(stream, sellDepth(2, 10060000000, 150000000))
	stream = codec.AppendTrade(stream, model.TradeEvent{Header: model.Header{Time: 3}, ID: 1, Price: 1, Volume: 1})
	stream = codec.AppendTrade(stream, model.TradeEvent{Header: model.Header{Time: 4}, ID: 2, Price: 1, Volume: 1})

	var observations []FirstBook
	_, _, _, _, err := run(t, stream, WithFirstBookFunc(func(fb FirstBook) {
		observations = append(observations, fb)
	}))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(observations) != 1 {
		t.Fatalf("first-book observations = %d, want exactly 1", len(observations))
	}
	fb := observations[0]
	if fb.Time != 3 {
		t.Errorf("FirstBook.Time = %d, want 3", fb.Time)
	}
	if !fb.HasBid || fb.BestBid.String() != "100.5" {
		t.Errorf("FirstBook.BestBid = %s (has=%v), want 100.5", fb.BestBid, fb.HasBid)
	}
	if !fb.HasAsk || fb.BestAsk.String() != "100.6" {
		t.Errorf("FirstBook.BestAsk = %s (has=%v), want 100.6", fb.BestAsk, fb.HasAsk)
	}
}

func TestRun_FirstBookOnEmptyBook(t *testing.T) {
	// A trade before any depth still flips to live; the observation just
	// carries no quotes.
	stream := codec.AppendTrade(nil, model.TradeEvent{Header: model.Header{Time: 1}, ID: 1, Price: 1, Volume: 1})

	var got []FirstBook
	_, _, _, stats, err := run(t, stream, WithFirstBookFunc(func(fb FirstBook) { got = append(got, fb) }))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.State != StateLive {
		t.Errorf("State = %v, want StateLive", stats.State)
	}
	if len(got) != 1 || got[0].HasBid || got[0].HasAsk {
		t.Errorf("observation = %+v, want one entry with no quotes", got)
	}
}

func TestRun_UnrecognizedKindCountedOnly(t *testing.T) {
	var stream []byte
	stream = codec.AppendUnknown(stream, model.KindCandle, 1, make([]byte, 40))
	stream = codec.AppendDepth(stream, buyDepth(2, 10050000000, 200000000))
	stream = codec.AppendUnknown(stream, model.KindSymbol, 3, []byte("SYM"))

	b, l, _, stats, err := run(t, stream)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Processed != 3 {
		t.Errorf("Processed = %d, want 3", stats.Processed)
	}
	if stats.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", stats.Skipped)
	}
	if stats.State != StateBuildingSnapshot {
		t.Errorf("State = %v, want StateBuildingSnapshot (no trade seen)", stats.State)
	}
	if got := b.BidCount(); got != 1 {
		t.Errorf("BidCount() = %d, want 1", got)
	}
	if got := l.Count(); got != 0 {
		t.Errorf("trade Count() = %d, want 0", got)
	}
}

func TestRun_CorruptStreamKeepsState(t *testing.T) {
	var stream []byte
	stream = codec.AppendDepth(stream, buyDepth(1, 10050000000, 200000000))
	full := codec.AppendTrade(nil, model.TradeEvent{Header: model.Header{Time: 2}, ID: 1, Price: 1, Volume: 1})
	stream = append(stream, full[:len(full)-4]...) // truncate mid-record

	b, _, _, stats, err := run(t, stream)
	if !errors.Is(err, codec.ErrUnexpectedEOF) {
		t.Fatalf("Run() error = %v, want ErrUnexpectedEOF", err)
	}

	// Whatever was applied before the failure remains readable.
	if stats.Processed != 1 {
		t.Errorf("Processed = %d, want 1", stats.Processed)
	}
	if got := b.BidCount(); got != 1 {
		t.Errorf("BidCount() = %d, want 1", got)
	}
}

func TestRun_ResetOnClearPolicies(t *testing.T) {
	mkStream := func() []byte {
		var s []byte
		s = codec.AppendDepth(s, buyDepth(1, 10050000000, 200000000))
		s = codec.AppendTrade(s, model.TradeEvent{Header: model.Header{Time: 2}, ID: 1, Price: 1, Volume: 1})
		s = codec.AppendDepth(s, model.DepthUpdate{
			Header: model.Header{Time: 3},
			Price:  10000000000,
			Volume: 100000000,
			Flags:  model.FlagBuy | model.FlagClear,
		})
		s = codec.AppendTrade(s, model.TradeEvent{Header: model.Header{Time: 4}, ID: 2, Price: 1, Volume: 1})
		return s
	}

	t.Run("default stays live", func(t *testing.T) {
		var count int
		_, _, _, stats, err := run(t, mkStream(), WithFirstBookFunc(func(FirstBook) { count++ }))
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if count != 1 {
			t.Errorf("first-book fired %d times, want 1", count)
		}
		if stats.State != StateLive {
			t.Errorf("State = %v, want StateLive", stats.State)
		}
	})

	t.Run("reset on clear", func(t *testing.T) {
		var count int
		_, _, _, stats, err := run(t, mkStream(),
			WithResetOnClear(true),
			WithFirstBookFunc(func(FirstBook) { count++ }),
		)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if count != 2 {
			t.Errorf("first-book fired %d times, want 2", count)
		}
		if stats.State != StateLive {
			t.Errorf("State = %v, want StateLive after second trade", stats.State)
		}
	})
}

func TestRun_Observers(t *testing.T) {
	var stream []byte
	stream = codec.AppendDepth(stream, buyDepth(1, 10050000000, 200000000))
	stream = codec.AppendTrade(stream, model.TradeEvent{Header: model.Header{Time: 2}, ID: 9, Price: 1, Volume: 1})

	var depths []model.DepthUpdate
	var tradeEvents []model.TradeEvent
	_, _, _, _, err := run(t, stream,
		WithDepthObserver(func(u model.DepthUpdate) { depths = append(depths, u) }),
		WithTradeObserver(func(ev model.TradeEvent) { tradeEvents = append(tradeEvents, ev) }),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(depths) != 1 || depths[0].Price != 10050000000 {
		t.Errorf("depth observer saw %+v, want one update at 10050000000", depths)
	}
	if len(tradeEvents) != 1 || tradeEvents[0].ID != 9 {
		t.Errorf("trade observer saw %+v, want one event with id 9", tradeEvents)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	stream := codec.AppendDepth(nil, buyDepth(1, 10050000000, 200000000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := book.New()
	c := New(b, trades.NewLog())
	_, err := c.Run(ctx, codec.NewDecoder(bytes.NewReader(stream)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if got := b.BidCount(); got != 0 {
		t.Errorf("BidCount() = %d, want 0 (stopped before first record)", got)
	}
}
