// Package reaper removes expired uploads.
//
// Each tick deletes the expired records in one transaction, commits, and only
// then deletes the matching objects. A failed object delete leaves orphan
// objects behind, never a record without content. The next tick is scheduled
// after the previous one has finished, so ticks never overlap.
//
// Exactly one reaper may run against a metadata store at a time.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sharethis/service/internal/uow"
)

// State is the lifecycle state of a Reaper.
type State int32

const (
	StateIdle State = iota
	StateSweeping
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSweeping:
		return "sweeping"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Result describes one tick.
type Result struct {
	// Keys are the records removed by the tick.
	Keys []string
	// Duration is how long the tick took.
	Duration time.Duration
}

// Reaper periodically sweeps expired records and their objects.
type Reaper struct {
	uow      *uow.Factory
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	tickMu sync.Mutex
	state  atomic.Int32

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Reaper that ticks every interval once started.
func New(factory *uow.Factory, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		uow:      factory,
		interval: interval,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "reaper")),
	}
}

// State returns the current lifecycle state.
func (r *Reaper) State() State {
	return State(r.state.Load())
}

// Start runs the tick loop in a new goroutine until ctx is cancelled or Stop
// is called. The first tick runs one interval after Start.
func (r *Reaper) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(loopCtx)

	r.logger.Info("reaper started", slog.Duration("interval", r.interval))
}

// Stop stops scheduling new ticks and waits for the in-flight tick, if any,
// to finish. It is safe to call more than once.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.state.CompareAndSwap(int32(StateIdle), int32(StateShuttingDown))
	r.state.CompareAndSwap(int32(StateSweeping), int32(StateShuttingDown))
	r.cancel()
	<-r.done
}

// Done is closed once the loop has exited.
func (r *Reaper) Done() <-chan struct{} {
	return r.done
}

func (r *Reaper) run(ctx context.Context) {
	defer func() {
		r.state.Store(int32(StateStopped))
		r.logger.Info("reaper stopped")
		close(r.done)
	}()

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			// A started tick runs to completion even when shutdown begins.
			if _, err := r.Tick(context.WithoutCancel(ctx)); err != nil {
				r.logger.Error("reaper tick failed", slog.Any("error", err))
			}
			timer.Reset(r.interval)
		}
	}
}

// Tick performs one sweep: delete expired records, commit, then delete their
// objects. Objects are only deleted once the record deletion is durable.
func (r *Reaper) Tick(ctx context.Context) (Result, error) {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	r.state.CompareAndSwap(int32(StateIdle), int32(StateSweeping))
	defer r.state.CompareAndSwap(int32(StateSweeping), int32(StateIdle))

	start := time.Now()
	var res Result
	phase := phaseMetadata

	err := r.uow.Run(ctx, func(ctx context.Context, w *uow.UnitOfWork) error {
		keys, err := w.Records.DeleteExpired(ctx, r.now())
		if err != nil {
			return err
		}
		if err := w.Commit(ctx); err != nil {
			return fmt.Errorf("commit expired records: %w", err)
		}
		res.Keys = keys

		phase = phaseObjects
		return w.Content.BulkDelete(ctx, keys)
	})

	res.Duration = time.Since(start)
	ticksTotal.Inc()
	keysSweptTotal.Add(float64(len(res.Keys)))
	tickDurationSeconds.Observe(res.Duration.Seconds())

	if err != nil {
		tickFailuresTotal.WithLabelValues(phase).Inc()
		return res, fmt.Errorf("reaper tick (%s): %w", phase, err)
	}

	if len(res.Keys) > 0 {
		r.logger.Info("expired uploads removed", slog.Int("count", len(res.Keys)))
	}
	r.logger.Debug("reaper tick done",
		slog.Any("keys", res.Keys),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}
