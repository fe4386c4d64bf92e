package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedtools/bookreplay/internal/archive"
	"github.com/feedtools/bookreplay/internal/book"
	"github.com/feedtools/bookreplay/internal/codec"
	"github.com/feedtools/bookreplay/internal/config"
	"github.com/feedtools/bookreplay/internal/database"
	"github.com/feedtools/bookreplay/internal/feed"
	"github.com/feedtools/bookreplay/internal/model"
	"github.com/feedtools/bookreplay/internal/publish"
	"github.com/feedtools/bookreplay/internal/session"
	"github.com/feedtools/bookreplay/internal/stream"
	"github.com/feedtools/bookreplay/internal/trades"
	"github.com/feedtools/bookreplay/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	inputPath := flag.String("input", "", "capture file to replay (overrides config)")
	format := flag.String("format", "", "capture format: auto, raw, or lz4 (overrides config)")
	resetOnClear := flag.Bool("reset-on-clear", false, "restart snapshot tracking when the book is cleared")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath, *inputPath, *format, *resetOnClear)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting replay",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"input", cfg.Input.Path,
		"format", cfg.Input.Format,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig merges the optional config file with command-line overrides.
func loadConfig(path, input, format string, resetOnClear bool) (*config.ReplayConfig, error) {
	var cfg *config.ReplayConfig
	if path != "" {
		loaded, err := config.LoadWithDefaults(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &config.ReplayConfig{}
	}

	if input != "" {
		cfg.Input.Path = input
	}
	if format != "" {
		cfg.Input.Format = format
	}
	if resetOnClear {
		cfg.Session.ResetOnClear = true
	}

	// Flag-only invocations still need defaults and validation.
	if path == "" {
		if cfg.Input.Format == "" {
			cfg.Input.Format = config.DefaultInputFormat
		}
		if cfg.Log.Level == "" {
			cfg.Log.Level = config.DefaultLogLevel
		}
		if cfg.Instance.ID == "" {
			cfg.Instance.ID = "replay"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.ReplayConfig, logger *slog.Logger) error {
	src, err := stream.OpenFormat(cfg.Input.Path, stream.Format(cfg.Input.Format))
	if err != nil {
		return err
	}
	defer src.Close()

	b := book.New()
	tradeLog := trades.NewLog()

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithResetOnClear(cfg.Session.ResetOnClear),
	}

	// Optional websocket broadcast.
	var hub *publish.Hub
	if cfg.Publish.Enabled {
		hub = publish.NewHub(logger)
		if err := hub.Start(cfg.Publish.Addr); err != nil {
			return fmt.Errorf("start publish hub: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			hub.Stop(stopCtx)
		}()

		opts = append(opts, session.WithFirstBookFunc(func(fb session.FirstBook) {
			hub.Broadcast(publish.FirstBookEvent(fb))
		}))
	}

	// Optional database archive. Buffers are created before the coordinator
	// so the observers can close over them; writers need the run ID and
	// start afterwards.
	var depthBuf *feed.Buffer[model.DepthUpdate]
	var tradeBuf *feed.Buffer[model.TradeEvent]
	var pool *pgxpool.Pool

	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Database.Host,
			"port", cfg.Archive.Database.Port,
			"database", cfg.Archive.Database.Name,
		)

		pool, err = database.Connect(ctx, cfg.Archive.Database)
		if err != nil {
			return fmt.Errorf("connect archive database: %w", err)
		}
		defer pool.Close()

		depthBuf = feed.NewBuffer[model.DepthUpdate](cfg.Archive.Writers.BufferSize)
		tradeBuf = feed.NewBuffer[model.TradeEvent](cfg.Archive.Writers.BufferSize)
	}

	if depthBuf != nil || hub != nil {
		opts = append(opts, session.WithDepthObserver(func(u model.DepthUpdate) {
			if depthBuf != nil {
				depthBuf.Send(u)
			}
			if hub != nil {
				hub.Broadcast(publish.DepthEvent(u))
			}
		}))
		opts = append(opts, session.WithTradeObserver(func(ev model.TradeEvent) {
			if tradeBuf != nil {
				tradeBuf.Send(ev)
			}
			if hub != nil {
				hub.Broadcast(publish.TradeEvent(ev))
			}
		}))
	}

	coord := session.New(b, tradeLog, opts...)

	var writers []interface {
		Stop(context.Context) error
		Stats() archive.WriterMetrics
	}
	if pool != nil {
		wcfg := archive.WriterConfig{
			BatchSize:     cfg.Archive.Writers.BatchSize,
			FlushInterval: cfg.Archive.Writers.FlushInterval,
		}
		dw := archive.NewDepthWriter(wcfg, coord.ID(), depthBuf, pool, logger)
		tw := archive.NewTradeWriter(wcfg, coord.ID(), tradeBuf, pool, logger)
		if err := dw.Start(ctx); err != nil {
			return err
		}
		if err := tw.Start(ctx); err != nil {
			return err
		}
		writers = append(writers, dw, tw)
	}

	start := time.Now()
	stats, runErr := coord.Run(ctx, codec.NewDecoder(src))
	duration := time.Since(start)

	report(logger, b, tradeLog, stats, duration)

	// Stop writers after the report so the final flush covers every record.
	for _, w := range writers {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := w.Stop(stopCtx); err != nil {
			logger.Warn("writer stop failed", "error", err)
		}
		stopCancel()
		m := w.Stats()
		logger.Info("archive writer finished",
			"inserts", m.Inserts,
			"errors", m.Errors,
			"flushes", m.Flushes,
		)
	}

	return runErr
}

func report(logger *slog.Logger, b *book.Book, tradeLog *trades.Log, stats session.Stats, duration time.Duration) {
	rate := float64(0)
	if duration > 0 {
		rate = float64(stats.Processed) / duration.Seconds()
	}

	logger.Info("replay complete",
		"processed", stats.Processed,
		"depth_updates", stats.DepthUpdates,
		"trades", stats.Trades,
		"skipped", stats.Skipped,
		"duration", duration,
		"msgs_per_sec", fmt.Sprintf("%.0f", rate),
		"state", stats.State,
	)

	bestBid := "none"
	if bid, ok := b.BestBid(); ok {
		bestBid = bid.StringFixed(2)
	}
	bestAsk := "none"
	if ask, ok := b.BestAsk(); ok {
		bestAsk = ask.StringFixed(2)
	}

	logger.Info("final book",
		"bids", b.BidCount(),
		"asks", b.AskCount(),
		"best_bid", bestBid,
		"best_ask", bestAsk,
	)

	if last, ok := tradeLog.Last(); ok {
		logger.Info("final trades",
			"count", tradeLog.Count(),
			"last_time", last.Time,
			"last_price", last.Price,
			"last_volume", last.Volume,
		)
	} else {
		logger.Info("final trades", "count", 0)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
