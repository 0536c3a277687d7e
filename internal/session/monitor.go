package session

import (
	"context"
	"sync"
	"time"
)

// monitor owns the background token check goroutine.
type monitor struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// start launches the loop unless one is already running.
func (m *monitor) start(interval time.Duration, tick func(ctx context.Context)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go run(ctx, interval, tick)
	return true
}

// stop cancels the loop. It does not wait for an in-flight tick.
func (m *monitor) stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return false
	}
	m.cancel()
	m.cancel = nil
	return true
}

func (m *monitor) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func run(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A stop can race the ticker; a cancelled loop never ticks again.
			if ctx.Err() != nil {
				return
			}
			tick(ctx)
		}
	}
}
