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

// depthRow is the depth_updates table shape.
type depthRow struct {
	RunID  uuid.UUID
	Seq    int64
	Time   int64
	Price  int64
	Volume int64
	Flags  int16
}

// DepthWriter consumes depth updates from a feed buffer and writes them to
// the depth_updates table in batches.
type DepthWriter struct {
	cfg    WriterConfig
	runID  uuid.UUID
	logger *slog.Logger

	input *feed.Buffer[model.DepthUpdate]
	db    *pgxpool.Pool

	// Batching
	batch       []depthRow
	batchMu     sync.Mutex
	seq         int64
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewDepthWriter creates a new DepthWriter for one replay run.
func NewDepthWriter(
	cfg WriterConfig,
	runID uuid.UUID,
	input *feed.Buffer[model.DepthUpdate],
	db *pgxpool.Pool,
	logger *slog.Logger,
) *DepthWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DepthWriter{
		cfg:    cfg,
		runID:  runID,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]depthRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming updates and writing to the database.
func (w *DepthWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("depth writer started",
		"run_id", w.runID,
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains the input buffer, performs a final flush, and shuts down.
func (w *DepthWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping depth writer")

	// Drain whatever the replay loop already published.
	for {
		u, ok := w.input.TryReceive()
		if !ok {
			break
		}
		w.handleUpdate(u)
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
		w.logger.Info("depth writer stopped")
	case <-ctx.Done():
		w.logger.Warn("depth writer stop timed out")
	}

	// Final flush runs on the caller's context: w.ctx is already cancelled.
	w.flush(ctx)
	return nil
}

// Stats returns current metrics.
func (w *DepthWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *DepthWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			u, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleUpdate(u)
		}
	}
}

func (w *DepthWriter) flushLoop() {
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

func (w *DepthWriter) handleUpdate(u model.DepthUpdate) {
	w.batchMu.Lock()
	w.seq++
	w.batch = append(w.batch, w.transform(u, w.seq))
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a DepthUpdate to a depthRow.
func (w *DepthWriter) transform(u model.DepthUpdate, seq int64) depthRow {
	return depthRow{
		RunID:  w.runID,
		Seq:    seq,
		Time:   u.Time,
		Price:  u.Price,
		Volume: u.Volume,
		Flags:  int16(u.Flags),
	}
}

// flush writes the current batch to the database.
func (w *DepthWriter) flush(ctx context.Context) {
	if w.db == nil {
		return
	}

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]depthRow, 0, w.cfg.BatchSize)
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

	w.logger.Debug("flushed depth updates",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

func (w *DepthWriter) batchInsert(ctx context.Context, rows []depthRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO depth_updates (run_id, seq, event_time, price, volume, flags)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.RunID, r.Seq, r.Time, r.Price, r.Volume, r.Flags)
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
