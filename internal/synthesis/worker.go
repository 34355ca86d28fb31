package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

// ErrWorkerStopped is returned by Submit after Stop
var ErrWorkerStopped = errors.New("device worker stopped")

// WorkerConfig sizes the device worker
type WorkerConfig struct {
	Slots      int           // Concurrent synthesis calls on the device
	QueueSize  int           // Jobs waiting for a slot
	SubmitWait time.Duration // How long Submit waits for queue space before GENERATION_BUSY
	JobTimeout time.Duration // Deadline per job, counted from submission
}

// DefaultWorkerConfig returns a single-slot worker
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Slots:      1,
		QueueSize:  8,
		SubmitWait: 2 * time.Second,
		JobTimeout: 3 * time.Minute,
	}
}

// JobFunc runs on a device slot
type JobFunc func(ctx context.Context) error

type job struct {
	ctx  context.Context
	fn   JobFunc
	done chan error
}

// WorkerStats is a point-in-time view of the worker
type WorkerStats struct {
	Slots     int   `json:"slots"`
	QueueSize int   `json:"queue_size"`
	Queued    int   `json:"queued"`
	InFlight  int64 `json:"in_flight"`
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
}

// DeviceWorker owns exclusive access to the synthesis device. Jobs go
// through a bounded queue and run on a fixed number of slot goroutines.
type DeviceWorker struct {
	config WorkerConfig
	jobs   chan *job
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	inFlight  atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
}

// NewDeviceWorker creates a worker; call Start before Submit
func NewDeviceWorker(config WorkerConfig, logger *slog.Logger) *DeviceWorker {
	if config.Slots < 1 {
		config.Slots = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultWorkerConfig().JobTimeout
	}

	return &DeviceWorker{
		config: config,
		jobs:   make(chan *job, config.QueueSize),
		logger: logger.With("component", "device_worker"),
		stopCh: make(chan struct{}),
	}
}

// Start launches the slot goroutines
func (w *DeviceWorker) Start() {
	for i := 0; i < w.config.Slots; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
	w.logger.Info("device worker started",
		"slots", w.config.Slots,
		"queue_size", w.config.QueueSize,
	)
}

// Stop stops accepting jobs and waits for running ones to finish.
// Jobs still queued are failed with ErrWorkerStopped.
func (w *DeviceWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()

	for {
		select {
		case j := <-w.jobs:
			j.done <- ErrWorkerStopped
		default:
			w.logger.Info("device worker stopped")
			return
		}
	}
}

// Submit enqueues fn and waits for its result. A queue that stays full for
// SubmitWait yields GENERATION_BUSY; a job past its deadline yields
// GENERATION_TIMEOUT.
func (w *DeviceWorker) Submit(ctx context.Context, fn JobFunc) error {
	select {
	case <-w.stopCh:
		return ErrWorkerStopped
	default:
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	j := &job{ctx: jobCtx, fn: fn, done: make(chan error, 1)}

	if err := w.enqueue(ctx, j); err != nil {
		return err
	}

	select {
	case err := <-j.done:
		return w.classify(ctx, err)
	case <-jobCtx.Done():
		return w.classify(ctx, jobCtx.Err())
	}
}

func (w *DeviceWorker) enqueue(ctx context.Context, j *job) error {
	// Fast path when there is room
	select {
	case w.jobs <- j:
		return nil
	default:
	}

	var wait <-chan time.Time
	if w.config.SubmitWait > 0 {
		timer := time.NewTimer(w.config.SubmitWait)
		defer timer.Stop()
		wait = timer.C
	} else {
		closed := make(chan time.Time)
		close(closed)
		wait = closed
	}

	select {
	case w.jobs <- j:
		return nil
	case <-wait:
		w.rejected.Add(1)
		w.logger.Warn("synthesis queue full", "queue_size", w.config.QueueSize)
		return domain.ErrGenerationBusy
	case <-w.stopCh:
		return ErrWorkerStopped
	case <-ctx.Done():
		return w.classify(ctx, ctx.Err())
	}
}

// classify maps context errors onto the domain taxonomy
func (w *DeviceWorker) classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrGenerationTimeout.WithError(err)
	}
	if errors.Is(err, context.Canceled) && parent.Err() != nil {
		return fmt.Errorf("generation cancelled: %w", err)
	}
	return err
}

func (w *DeviceWorker) run(slot int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		case j := <-w.jobs:
			w.execute(slot, j)
		}
	}
}

func (w *DeviceWorker) execute(slot int, j *job) {
	// Expired while queued: never touch the device
	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}

	w.inFlight.Add(1)
	start := time.Now()

	err := w.safeRun(j)

	w.inFlight.Add(-1)
	w.completed.Add(1)

	w.logger.Debug("synthesis job finished",
		"slot", slot,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)

	j.done <- err
}

// safeRun keeps a panicking job from taking the slot goroutine down
func (w *DeviceWorker) safeRun(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("synthesis job panicked", "panic", r)
			err = domain.ErrSynthesisFailure.WithError(fmt.Errorf("panic: %v", r))
		}
	}()
	return j.fn(j.ctx)
}

// Stats returns current queue and slot usage
func (w *DeviceWorker) Stats() WorkerStats {
	return WorkerStats{
		Slots:     w.config.Slots,
		QueueSize: w.config.QueueSize,
		Queued:    len(w.jobs),
		InFlight:  w.inFlight.Load(),
		Completed: w.completed.Load(),
		Rejected:  w.rejected.Load(),
	}
}
