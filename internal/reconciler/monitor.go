package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/clinidoc/actd/internal/logger"
)

// DefaultWarmupDelay is how long the monitor waits before its first check,
// letting the application finish interactive startup.
const DefaultWarmupDelay = 30 * time.Second

// Monitor runs the reconciliation loop in the background. The first check
// fires after a warm-up delay, subsequent checks at the reconciler's poll
// interval. When a check reports deactivation the OnDeactivated callback
// runs after the cycle has fully completed, so shutdown is cooperative and
// never interrupts an in-flight durable write.
type Monitor struct {
	rec      *Reconciler
	warmup   time.Duration
	interval time.Duration

	// OnDeactivated is invoked once, from the monitor goroutine, when a
	// reconciliation cycle reports the instance is no longer permitted to
	// run. The loop stops afterwards.
	OnDeactivated func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor creates a Monitor over the given reconciler. Non-positive
// durations select the defaults.
func NewMonitor(rec *Reconciler, warmup, interval time.Duration) *Monitor {
	if warmup <= 0 {
		warmup = DefaultWarmupDelay
	}
	if interval <= 0 {
		interval = DefaultTTL
	}
	return &Monitor{
		rec:      rec,
		warmup:   warmup,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. It returns immediately; the loop runs
// until Stop is called, the context is done, or deactivation is detected.
func (m *Monitor) Start(ctx context.Context) {
	go m.run(ctx)
}

// Stop terminates the loop and waits for any in-flight reconciliation
// cycle, bounded by the client's request timeout, to finish.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	timer := time.NewTimer(m.warmup)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-timer.C:
		}

		if !m.rec.IsActive(ctx) {
			logger.Info(ctx, "Instance deactivated, stopping activation monitor")
			if m.OnDeactivated != nil {
				m.OnDeactivated()
			}
			return
		}

		timer.Reset(m.interval)
	}
}
