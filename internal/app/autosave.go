package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/swag-kart/internal/domain/cart"
)

// autosaver persists cart snapshots in the background. Only the most recent
// pending snapshot is kept: a snapshot queued while an older one is still
// waiting replaces it.
type autosaver struct {
	lg       *zap.Logger
	storage  cart.Storage
	slot     string
	timeout  time.Duration
	failures metric.Int64Counter

	// base carries values such as the ctx logger; it is never cancelled.
	base context.Context

	mu      sync.Mutex
	closed  bool
	pending chan []cart.LineItem
	done    chan struct{}

	saves   atomic.Int64
	lastErr atomic.Pointer[error]
}

func newAutosaver(ctx context.Context, lg *zap.Logger, storage cart.Storage, slot string, timeout time.Duration, failures metric.Int64Counter) *autosaver {
	a := &autosaver{
		lg:       lg,
		storage:  storage,
		slot:     slot,
		timeout:  timeout,
		failures: failures,
		base:     context.WithoutCancel(ctx),
		pending:  make(chan []cart.LineItem, 1),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

// Enqueue schedules lines to be saved. It never blocks.
func (a *autosaver) Enqueue(lines []cart.LineItem) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	select {
	case <-a.pending:
	default:
	}
	a.pending <- lines
}

func (a *autosaver) run() {
	defer close(a.done)
	for lines := range a.pending {
		a.save(lines)
	}
}

func (a *autosaver) save(lines []cart.LineItem) {
	ctx, cancel := context.WithTimeout(a.base, a.timeout)
	defer cancel()

	err := a.storage.Save(ctx, a.slot, lines)
	a.lastErr.Store(&err)
	if err != nil {
		a.failures.Add(ctx, 1)
		a.lg.Warn("Autosave failed",
			zap.String("slot", a.slot),
			zap.Int("lines", len(lines)),
			zap.Error(err),
		)
		return
	}
	a.saves.Add(1)
	a.lg.Debug("Cart saved", zap.String("slot", a.slot), zap.Int("lines", len(lines)))
}

// LastError returns the result of the most recent save.
func (a *autosaver) LastError() error {
	if p := a.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Saves returns the number of successful saves.
func (a *autosaver) Saves() int64 {
	return a.saves.Load()
}

// Close saves the pending snapshot, if any, and stops the worker.
func (a *autosaver) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.pending)
	}
	a.mu.Unlock()

	<-a.done
}
