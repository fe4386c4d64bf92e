package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedtools/bookreplay/internal/feed"
	"github.com/feedtools/bookreplay/internal/model"
)

// tradeRow is the trade_events table shape.
type tradeRow struct {
	RunID   uuid.UUID
	Seq     int64
	Time    int64
	TradeID int64
	Price   int64
	Volume  int64
	Type    int16
}

// TradeWriter consumes trade events from a feed buffer and writes them to
// the trade_events table in batches.
type TradeWriter struct {
	cfg    WriterConfig
	runID  uuid.UUID
	logger *slog.Logger

	input *feed.Buffer[model.TradeEvent]
	db    *pgxpool.Pool

	// Batching
	batch       []tradeRow
	batchMu     sync.Mutex
	seq         int64
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewTradeWriter creates a new TradeWriter for one replay run.
func NewTradeWriter(
	cfg WriterConfig,
	runID uuid.UUID,
	input *feed.Buffer[model.TradeEvent],
	db *pgxpool.Pool,
	logger *slog.Logger,
) *TradeWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeWriter{
		cfg:    cfg,
		runID:  runID,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]tradeRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming events and writing to the database.
func (w *TradeWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("trade writer started",
		"run_id", w.runID,
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains the input buffer, performs a final flush, and shuts down.
func (w *TradeWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping trade writer")

	for {
		ev, ok := w.input.TryReceive()
		if !ok {
			break
		}
		w.handleEvent(ev)
	}

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("trade writer stopped")
	case <-ctx.Done():
		w.logger.Warn("trade writer stop timed out")
	}

	// Final flush runs on the caller's context: w.ctx is already cancelled.
	w.flush(ctx)
	return nil
}

// Stats returns current metrics.
func (w *TradeWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *TradeWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			ev, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleEvent(ev)
		}
	}
}

func (w *TradeWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *TradeWriter) handleEvent(ev model.TradeEvent) {
	w.batchMu.Lock()
	w.seq++
	w.batch = append(w.batch, w.transform(ev, w.seq))
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a TradeEvent to a tradeRow.
func (w *TradeWriter) transform(ev model.TradeEvent, seq int64) tradeRow {
	return tradeRow{
		RunID:   w.runID,
		Seq:     seq,
		Time:    ev.Time,
		TradeID: ev.ID,
		Price:   ev.Price,
		Volume:  ev.Volume,
		Type:    int16(ev.Type),
	}
}

// flush writes the current batch to the database.
func (w *TradeWriter) flush(ctx context.Context) {
	if w.db == nil {
		return
	}

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]tradeRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	if err := w.batchInsert(ctx, batch); err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch))
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed trade events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

func (w *TradeWriter) batchInsert(ctx context.Context, rows []tradeRow) error {
	// No ON CONFLICT clause: duplicate trade ids are distinct events and
	// the log is append-only.
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO trade_events (run_id, seq, event_time, trade_id, price, volume, type)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.RunID, r.Seq, r.Time, r.TradeID, r.Price, r.Volume, r.Type)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
