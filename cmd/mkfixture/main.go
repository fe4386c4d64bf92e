// Command mkfixture writes a synthetic capture file for replay testing.
//
// The generated stream follows the shape of a real session: a burst of
// depth updates building the initial book, then interleaved trades and
// incremental depth changes, with an occasional book clear. Output is
// raw or lz4-framed depending on the file extension.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/feedtools/bookreplay/internal/codec"
	"github.com/feedtools/bookreplay/internal/model"
)

func main() {
	out := flag.String("out", "fixture.bin", "output path (.lz4 suffix enables compression)")
	snapshot := flag.Int("snapshot", 50, "depth updates in the initial snapshot burst")
	events := flag.Int("events", 1000, "records after the snapshot")
	clears := flag.Int("clears", 0, "book clears spread across the live phase")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := write(*out, *snapshot, *events, *clears, *seed); err != nil {
		logger.Error("fixture generation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("fixture written",
		"path", *out,
		"snapshot", *snapshot,
		"events", *events,
		"clears", *clears,
	)
}

func write(path string, snapshot, events, clears int, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var zw *lz4.Writer
	if strings.HasSuffix(path, ".lz4") {
		zw = lz4.NewWriter(f)
		w = zw
	}

	if _, err := w.Write(generate(snapshot, events, clears, seed)); err != nil {
		return err
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close lz4 frame: %w", err)
		}
	}
	return f.Close()
}

// generate builds the full record stream in memory. Prices are fixed-point
// with 8 decimal places around a mid of 100.00.
func generate(snapshot, events, clears int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	var buf []byte

	const (
		mid  = int64(100_0000_0000) // 100.00
		tick = int64(1000_0000)     // 0.01
	)
	now := int64(1_700_000_000_000)
	tradeID := int64(1)

	level := func(side model.Flags, offset int) model.DepthUpdate {
		price := mid + int64(offset+1)*tick
		if side == model.FlagBuy {
			price = mid - int64(offset+1)*tick
		}
		return model.DepthUpdate{
			Header: model.Header{Time: now},
			Price:  price,
			Volume: int64(rng.Intn(10)+1) * 1_0000_0000,
			Flags:  side,
		}
	}

	// Snapshot burst: alternate sides, first record clears any prior state.
	for i := 0; i < snapshot; i++ {
		side := model.FlagBuy
		if i%2 == 1 {
			side = model.FlagSell
		}
		d := level(side, i/2)
		if i == 0 {
			d.Flags |= model.FlagClear
		}
		if i == snapshot-1 {
			d.Flags |= model.FlagEndOfTransaction
		}
		buf = codec.AppendDepth(buf, d)
		now++
	}

	clearEvery := 0
	if clears > 0 {
		clearEvery = events / (clears + 1)
	}

	for i := 0; i < events; i++ {
		now++
		switch {
		case clearEvery > 0 && i > 0 && i%clearEvery == 0:
			buf = codec.AppendDepth(buf, model.DepthUpdate{
				Header: model.Header{Time: now},
				Price:  mid,
				Volume: 1_0000_0000,
				Flags:  model.FlagBuy | model.FlagClear,
			})

		case rng.Intn(5) == 0:
			buf = codec.AppendTrade(buf, model.TradeEvent{
				Header: model.Header{Time: now},
				ID:     tradeID,
				Price:  mid + int64(rng.Intn(11)-5)*tick,
				Volume: int64(rng.Intn(5)+1) * 1_0000_0000,
				Type:   byte(rng.Intn(2) + 1),
			})
			tradeID++

		case rng.Intn(20) == 0:
			// Sprinkle in kinds the replay skips, as real captures have.
			buf = codec.AppendUnknown(buf, model.KindSymbol, now, []byte("TEST"))

		default:
			side := model.FlagBuy
			if rng.Intn(2) == 1 {
				side = model.FlagSell
			}
			d := level(side, rng.Intn(snapshot/2+1))
			d.Time = now
			if rng.Intn(10) == 0 {
				d.Volume = 0 // level removal
			}
			buf = codec.AppendDepth(buf, d)
		}
	}

	return buf
}
