package book

import (
	"testing"

	"github.com/feedtools/bookreplay/internal/model"
)

func depth(price, volume int64, flags model.Flags) model.DepthUpdate {
	return model.DepthUpdate{Price: price, Volume: volume, Flags: flags}
}

func TestApply_UpsertAndOverwrite(t *testing.T) {
	b := New()

	b.Apply(depth(10050000000, 200000000, model.FlagBuy))
	b.Apply(depth(10050000000, 300000000, model.FlagBuy))

	if got := b.BidCount(); got != 1 {
		t.Fatalf("BidCount() = %d, want 1", got)
	}
	vol, ok := b.BidVolume(10050000000)
	if !ok {
		t.Fatal("BidVolume() missing level")
	}
	if vol.String() != "3" {
		t.Errorf("volume after overwrite = %s, want 3", vol)
	}
}

func TestApply_DeleteOnNonPositiveVolume(t *testing.T) {
	b := New()

	b.Apply(depth(10050000000, 200000000, model.FlagBuy))
	b.Apply(depth(10050000000, 0, model.FlagBuy))

	if got := b.BidCount(); got != 0 {
		t.Errorf("BidCount() after delete = %d, want 0", got)
	}

	// Deleting an absent level is a no-op, not an error.
	b.Apply(depth(99900000000, -100, model.FlagSell))
	if got := b.AskCount(); got != 0 {
		t.Errorf("AskCount() after absent delete = %d, want 0", got)
	}
}

func TestApply_SideSelection(t *testing.T) {
	tests := []struct {
		name     string
		flags    model.Flags
		wantBids int
		wantAsks int
	}{
		{"buy", model.FlagBuy, 1, 0},
		{"sell", model.FlagSell, 0, 1},
		{"neither", 0, 0, 1},
		{"both", model.FlagBuy | model.FlagSell, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.Apply(depth(10000000000, 100000000, tt.flags))
			if got := b.BidCount(); got != tt.wantBids {
				t.Errorf("BidCount() = %d, want %d", got, tt.wantBids)
			}
			if got := b.AskCount(); got != tt.wantAsks {
				t.Errorf("AskCount() = %d, want %d", got, tt.wantAsks)
			}
		})
	}
}

func TestApply_ClearPrecedesOwnChange(t *testing.T) {
	b := New()
	b.Apply(depth(10050000000, 200000000, model.FlagBuy))
	b.Apply(depth(10060000000, 150000000, model.FlagSell))
	b.Apply(depth(10070000000, 150000000, model.FlagSell))

	// Clear-flagged bid: both sides emptied, then the record's own upsert.
	b.Apply(depth(10000000000, 100000000, model.FlagBuy|model.FlagClear))

	if got := b.BidCount(); got != 1 {
		t.Errorf("BidCount() = %d, want 1", got)
	}
	if got := b.AskCount(); got != 0 {
		t.Errorf("AskCount() = %d, want 0", got)
	}
	bid, ok := b.BestBid()
	if !ok || bid.String() != "100" {
		t.Errorf("BestBid() = %s, %v, want 100, true", bid, ok)
	}
}

func TestBestQuotes(t *testing.T) {
	b := New()

	if _, ok := b.BestBid(); ok {
		t.Error("BestBid() on empty book reported a price")
	}
	if _, ok := b.BestAsk(); ok {
		t.Error("BestAsk() on empty book reported a price")
	}

	b.Apply(depth(10050000000, 200000000, model.FlagBuy))
	b.Apply(depth(10040000000, 100000000, model.FlagBuy))
	b.Apply(depth(10060000000, 150000000, model.FlagSell))
	b.Apply(depth(10070000000, 150000000, model.FlagSell))

	bid, ok := b.BestBid()
	if !ok || bid.String() != "100.5" {
		t.Errorf("BestBid() = %s, %v, want 100.5, true", bid, ok)
	}
	ask, ok := b.BestAsk()
	if !ok || ask.String() != "100.6" {
		t.Errorf("BestAsk() = %s, %v, want 100.6, true", ask, ok)
	}

	// Queries track mutations synchronously: removing the best bid promotes
	// the next level immediately.
	b.Apply(depth(10050000000, 0, model.FlagBuy))
	bid, ok = b.BestBid()
	if !ok || bid.String() != "100.4" {
		t.Errorf("BestBid() after delete = %s, %v, want 100.4, true", bid, ok)
	}
}

func TestLastWriteWins(t *testing.T) {
	b := New()

	updates := []model.DepthUpdate{
		depth(10010000000, 100000000, model.FlagBuy),
		depth(10020000000, 200000000, model.FlagBuy),
		depth(10010000000, 500000000, model.FlagBuy),
		depth(10020000000, 0, model.FlagBuy),
		depth(10030000000, 700000000, model.FlagSell),
		depth(10030000000, 100000000, model.FlagSell),
	}
	for _, u := range updates {
		b.Apply(u)
	}

	if got := b.BidCount(); got != 1 {
		t.Fatalf("BidCount() = %d, want 1", got)
	}
	vol, _ := b.BidVolume(10010000000)
	if vol.String() != "5" {
		t.Errorf("bid volume = %s, want 5 (last write)", vol)
	}
	vol, _ = b.AskVolume(10030000000)
	if vol.String() != "1" {
		t.Errorf("ask volume = %s, want 1 (last write)", vol)
	}
}

func TestLevels_Ordering(t *testing.T) {
	b := New()
	b.Apply(depth(10010000000, 100000000, model.FlagBuy))
	b.Apply(depth(10030000000, 100000000, model.FlagBuy))
	b.Apply(depth(10020000000, 100000000, model.FlagBuy))
	b.Apply(depth(10050000000, 100000000, model.FlagSell))
	b.Apply(depth(10040000000, 100000000, model.FlagSell))

	bids := b.BidLevels()
	if len(bids) != 3 {
		t.Fatalf("len(BidLevels()) = %d, want 3", len(bids))
	}
	if bids[0].Price.String() != "100.3" || bids[2].Price.String() != "100.1" {
		t.Errorf("BidLevels() not descending: %v", bids)
	}

	asks := b.AskLevels()
	if len(asks) != 2 {
		t.Fatalf("len(AskLevels()) = %d, want 2", len(asks))
	}
	if asks[0].Price.String() != "100.4" {
		t.Errorf("AskLevels() not ascending: %v", asks)
	}
}
