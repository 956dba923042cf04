package progressbar

import (
	"context"
	"sync"
	"time"
)

// Monitor refreshes a bar in the background, so elapsed time and rate
// keep moving while the work itself is stuck between updates.
type Monitor struct {
	bar      *Bar
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
	err     error
}

// NewMonitor creates a monitor refreshing bar every interval (1s if
// interval is not positive).
func NewMonitor(bar *Bar, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		bar:      bar,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins refreshing. It returns at once; the monitor runs until the
// bar finishes, Stop is called, ctx is done or a repaint fails.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true
	go m.loop(ctx)
}

// Stop stops the monitor. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()

	close(m.stopCh)
}

// Wait blocks until the monitor has stopped and returns the repaint error
// that stopped it, if any. Wait on a monitor never started returns nil.
func (m *Monitor) Wait() error {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return nil
	}

	<-m.done
	return m.err
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	logger := m.bar.logger()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			logger.Debug().Err(ctx.Err()).Msg("monitor cancelled")
			return
		case <-ticker.C:
			if m.bar.IsFinished() {
				return
			}
			if err := m.bar.Refresh(); err != nil {
				logger.Warn().Err(err).Msg("monitor stopped on repaint failure")
				m.err = err
				return
			}
		}
	}
}
