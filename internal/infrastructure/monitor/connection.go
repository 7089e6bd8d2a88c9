package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything that can report liveness, such as a repository or a
// Redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// BufferSizer reports how many operations wait for replay.
type BufferSizer interface {
	Len() (int, error)
}

// Monitor probes storage dependencies on an interval and caches the result.
type Monitor struct {
	checks  map[string]Pinger
	primary string
	buffer  BufferSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New creates a monitor. primary names the check that decides IsOnline.
func New(primary string, checks map[string]Pinger, buf BufferSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			copied[name] = p
		}
	}
	return &Monitor{
		checks:   copied,
		primary:  primary,
		buffer:   buf,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start runs an initial probe synchronously, then keeps probing in the background.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the primary store answered its last probe.
// With no primary registered the monitor assumes it is online.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.primary == "" {
		return true
	}
	return m.status.Components[m.primary]
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Components = make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every dependency once.
func (m *Monitor) Refresh(ctx context.Context) Status {
	components := make(map[string]bool, len(m.checks))
	for name, p := range m.checks {
		components[name] = m.probe(ctx, name, p)
	}
	bufferOK, bufferSize := m.checkBuffer()

	status := Status{
		Components: components,
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if m.primary != "" && prev.Components != nil && prev.Components[m.primary] != components[m.primary] {
		m.logger.Info("primary storage availability changed",
			zap.String("component", m.primary),
			zap.Bool("online", components[m.primary]))
	}
	return status
}

func (m *Monitor) probe(ctx context.Context, name string, p Pinger) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		m.logger.Debug("dependency probe failed", zap.String("component", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Len()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
