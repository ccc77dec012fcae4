package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/judev-jbg/confirmation-invoice/internal/pipeline"
	"go.uber.org/zap"
)

// BatchRunner executes one batch over all eligible orders
type BatchRunner interface {
	Run(ctx context.Context) (pipeline.Outcome, error)
}

// BatchStatus reports the scheduler's view of the last batch
type BatchStatus struct {
	IsRunning   bool              `json:"is_running"`
	LastStarted time.Time         `json:"last_started,omitempty"`
	LastOutcome *pipeline.Outcome `json:"last_outcome,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
}

// BatchWorker runs the invoice confirmation batch on a fixed interval.
// Runs never overlap: a tick that lands while a batch is in flight is
// dropped, the order eligibility filter picks the work up again on the
// next one.
type BatchWorker struct {
	interval time.Duration
	runner   BatchRunner
	logger   *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	inFlight    bool
	lastStarted time.Time
	lastOutcome *pipeline.Outcome
	lastError   string
}

// NewBatchWorker creates a new batch scheduler worker
func NewBatchWorker(interval time.Duration, runner BatchRunner, logger *zap.Logger) *BatchWorker {
	return &BatchWorker{
		interval: interval,
		runner:   runner,
		logger:   logger,
	}
}

// Name implements Worker
func (w *BatchWorker) Name() string { return "invoice-batch" }

// Start begins the scheduling loop
func (w *BatchWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("batch worker already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true
	w.mu.Unlock()

	w.logger.Info("Batch worker started", zap.Duration("interval", w.interval))

	go w.loop()
	return nil
}

// Stop terminates the scheduling loop. A batch in flight finishes its
// current order and stops between orders.
func (w *BatchWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
}

// Status returns the last batch outcome for the admin API
func (w *BatchWorker) Status() BatchStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return BatchStatus{
		IsRunning:   w.inFlight,
		LastStarted: w.lastStarted,
		LastOutcome: w.lastOutcome,
		LastError:   w.lastError,
	}
}

// TriggerNow runs a batch immediately unless one is already in flight
func (w *BatchWorker) TriggerNow() error {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return fmt.Errorf("a batch is already running")
	}
	ctx := w.ctx
	w.mu.Unlock()

	if ctx == nil {
		return fmt.Errorf("batch worker not started")
	}

	go w.runOnce(ctx)
	return nil
}

func (w *BatchWorker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// First batch right away, then on the interval
	w.runOnce(w.ctx)

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Batch worker loop stopped")
			return
		case <-ticker.C:
			w.runOnce(w.ctx)
		}
	}
}

func (w *BatchWorker) runOnce(ctx context.Context) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		w.logger.Warn("Previous batch still running, skipping tick")
		return
	}
	w.inFlight = true
	w.lastStarted = time.Now()
	w.mu.Unlock()

	outcome, err := w.runner.Run(ctx)

	w.mu.Lock()
	w.inFlight = false
	w.lastOutcome = &outcome
	if err != nil {
		w.lastError = err.Error()
	} else {
		w.lastError = ""
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Batch run failed", zap.Error(err))
	}
}
