package sync

import (
	"context"
	"log/slog"
	"time"
)

const defaultPollInterval = 10 * time.Second

// Poller drives the engine's pull refreshes on a fixed interval. One
// refresh runs immediately on Run, then one per tick until the context is
// cancelled. Ticks never overlap: a slow pull delays the next one.
type Poller struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the default 10s poll interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPoller(engine *Engine, opts ...PollerOption) *Poller {
	p := &Poller{
		engine:   engine,
		interval: defaultPollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks until ctx is cancelled. Refresh failures are logged, not
// returned: the engine's fallback mode is the recovery path and the next
// tick retries.
func (p *Poller) Run(ctx context.Context) error {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.engine.Refresh(ctx); err != nil {
		p.logger.Debug("scheduled refresh failed", "mode", p.engine.Mode(), "error", err)
	}
}
