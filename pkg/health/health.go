// Package health tracks liveness and readiness of long-running components.
//
// Checks run periodically in background goroutines. A check must fail
// failureThreshold times in a row before it is reported unhealthy and
// succeed successThreshold times before it recovers, so a single slow
// storage round-trip does not flip the status.
package health

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// CheckFunc returns nil if the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// checkConfig holds the configuration and runtime state for a single check.
//
// run() is called by one goroutine at a time (the ticker, or RunOnce under
// runMu). healthy and lastErr are read from arbitrary goroutines.
type checkConfig struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	runMu            sync.Mutex
	consecutiveFails int
	consecutiveOK    int
}

func newCheck(name string, timeout time.Duration, check CheckFunc) *checkConfig {
	c := &checkConfig{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	c.healthy.Store(true)
	return c
}

func (c *checkConfig) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkConfig) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once and updates thresholds accordingly.
func (c *checkConfig) run(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}
}

// Status is a point-in-time view of a group of checks.
type Status struct {
	OK bool
	// Failures maps check name to its last error for every unhealthy check.
	Failures map[string]string
}

// Names returns the failing check names in sorted order.
func (s Status) Names() []string {
	return slices.Sorted(maps.Keys(s.Failures))
}

// Report combines liveness and readiness.
type Report struct {
	Live  Status
	Ready Status
}

// Health manages liveness and readiness checks.
type Health struct {
	ready atomic.Bool

	mu              sync.RWMutex
	livenessChecks  []*checkConfig
	readinessChecks []*checkConfig
	cancel          context.CancelFunc
	done            sync.WaitGroup
}

// New creates a Health instance in a not-ready state; call SetReady(true)
// once initialization is finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check, such as a goroutine leak
// detector.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.livenessChecks = append(h.livenessChecks, newCheck(name, timeout, check))
}

// AddReadinessCheck registers a readiness check, such as storage
// connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.readinessChecks = append(h.readinessChecks, newCheck(name, timeout, check))
}

func (h *Health) allChecks() []*checkConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()

	checks := make([]*checkConfig, 0, len(h.livenessChecks)+len(h.readinessChecks))
	checks = append(checks, h.livenessChecks...)
	return append(checks, h.readinessChecks...)
}

// Start runs every registered check in its own goroutine at the given
// interval until Stop is called or ctx is done. Start should be called once,
// after all checks are registered.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	for _, c := range h.allChecks() {
		h.done.Add(1)
		go func() {
			defer h.done.Done()
			runCheck(ctx, c, interval)
		}()
	}
}

// runCheck periodically executes a single check until the context is cancelled.
func runCheck(ctx context.Context, c *checkConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// RunOnce executes every check once, synchronously.
func (h *Health) RunOnce(ctx context.Context) {
	for _, c := range h.allChecks() {
		c.run(ctx)
	}
}

// SetReady sets the manual readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual flag is set AND all readiness checks
// pass.
func (h *Health) IsReady() bool {
	return h.Ready().OK
}

// IsLive reports whether all liveness checks pass.
func (h *Health) IsLive() bool {
	return h.Live().OK
}

// Live returns the liveness status.
func (h *Health) Live() Status {
	h.mu.RLock()
	checks := slices.Clone(h.livenessChecks)
	h.mu.RUnlock()

	return newStatus(collectFailures(checks))
}

// Ready returns the readiness status.
func (h *Health) Ready() Status {
	ready := h.ready.Load()

	h.mu.RLock()
	checks := slices.Clone(h.readinessChecks)
	h.mu.RUnlock()

	failures := collectFailures(checks)
	if !ready {
		failures["_readiness"] = "not ready"
	}
	return newStatus(failures)
}

// Report returns both statuses.
func (h *Health) Report() Report {
	return Report{Live: h.Live(), Ready: h.Ready()}
}

// Stop cancels all background check goroutines and waits for them to exit.
// It is safe to call Stop multiple times.
func (h *Health) Stop() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()

	h.done.Wait()
}

func newStatus(failures map[string]string) Status {
	if len(failures) == 0 {
		return Status{OK: true}
	}
	return Status{Failures: failures}
}

// collectFailures uses the stored last error rather than re-executing checks.
func collectFailures(checks []*checkConfig) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		if err := c.getLastError(); err != nil {
			failures[c.name] = err.Error()
		} else {
			failures[c.name] = "check is unhealthy"
		}
	}
	return failures
}
