package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is implemented by storage backends that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a CheckFunc that calls p.Ping.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCountCheck reports unhealthy when the number of goroutines
// exceeds threshold.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// ErrorCheck adapts a function returning the most recent error of a
// background worker, such as the last failed save.
func ErrorCheck(last func() error) CheckFunc {
	return func(context.Context) error {
		return last()
	}
}
