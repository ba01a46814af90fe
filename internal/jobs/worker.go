// Package jobs runs background processing of queued reindex jobs.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/cloo-solutions/docrag/internal/logging"
	"go.uber.org/zap"
)

// JobProcessor handles one batch of queued work. It reports how many jobs
// it claimed and whether more may be waiting.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) (claimed int, more bool, err error)
}

// Worker polls a JobProcessor. Every round keeps calling the processor for
// as long as it reports more work, so a backlog drains without waiting for
// further ticks. The first round runs as soon as the worker starts.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	logger       *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker creates a Worker polling every pollInterval.
func NewWorker(processor JobProcessor, pollInterval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		logger:       logging.OrNop(logger),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker started", zap.Duration("poll_interval", w.pollInterval))

	for {
		w.drain(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped: context cancelled")
			return
		case <-w.stop:
			w.logger.Info("worker stopped: stop signal received")
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	total := 0
	for {
		if w.stopping(ctx) {
			break
		}
		claimed, more, err := w.processor.ProcessJobs(ctx)
		total += claimed
		if err != nil {
			w.logger.Error("error processing jobs", zap.Error(err))
			break
		}
		if !more {
			break
		}
	}
	if total > 0 {
		w.logger.Debug("worker round finished", zap.Int("jobs", total))
	}
}

func (w *Worker) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.stop:
		return true
	default:
		return false
	}
}

// Stop ends the loop and waits for the current round to finish. It is safe
// to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
