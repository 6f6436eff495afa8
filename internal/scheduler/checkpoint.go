package scheduler

import (
	"context"
	"time"

	"github.com/marklet/marklet/internal/logger"
)

// Checkpointer is the store operation the loop drives.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// WALCheckpointer periodically folds the sqlite write-ahead log back into
// the main database file. Without it the WAL grows unbounded on a server
// that is never idle long enough for sqlite's automatic checkpoints.
type WALCheckpointer struct {
	store         Checkpointer
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewWALCheckpointer creates a checkpointer running at the given interval.
// manualTrigger lets operators force a checkpoint outside the schedule.
func NewWALCheckpointer(
	store Checkpointer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *WALCheckpointer {
	return &WALCheckpointer{
		store:         store,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic checkpoint process.
func (w *WALCheckpointer) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.run(ctx)
			case <-w.manualTrigger:
				w.logger.Info("manual wal checkpoint triggered")
				w.run(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the checkpointer.
func (w *WALCheckpointer) Stop() {
	close(w.stopCh)
}

func (w *WALCheckpointer) run(ctx context.Context) {
	start := time.Now()
	if err := w.store.Checkpoint(ctx); err != nil {
		w.logger.Error("wal checkpoint failed",
			logger.Error(err))
		return
	}
	w.logger.Debug("wal checkpoint complete",
		logger.Duration("took", time.Since(start)))
}
