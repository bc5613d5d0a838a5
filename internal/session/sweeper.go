package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/scriptsbot/core/logger"
)

const (
	// DefaultSweepInterval is how often the sweeper scans add sessions.
	DefaultSweepInterval = 10 * time.Minute
	// DefaultMaxAge is how long an untouched add session may live.
	DefaultMaxAge = 30 * time.Minute
)

// Sweeper periodically expires stale add-workflow sessions.
type Sweeper struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
}

// NewSweeper builds a sweeper over the given store. Zero durations fall back
// to the defaults.
func NewSweeper(store *Store, interval, maxAge time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic sweep until Stop is called or ctx is done.
func (sw *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.sweep(ctx)
			case <-sw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the periodic sweep.
func (sw *Sweeper) Stop() {
	close(sw.stopCh)
}

func (sw *Sweeper) sweep(ctx context.Context) {
	removed := sw.store.SweepAdds(sw.maxAge)
	adds, pages := sw.store.Counts()
	if removed > 0 {
		logger.Info(ctx, "session", "sweep",
			slog.Int("swept", removed),
			slog.Int("sessions", adds),
			slog.Int("pages", pages),
		)
		return
	}
	logger.Debug(ctx, "session", "sweep",
		slog.Int("swept", 0),
		slog.Int("sessions", adds),
		slog.Int("pages", pages),
	)
}
