package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper disconnects idle sessions and keeps live-session locks fresh.
type Reaper struct {
	registry *Registry
	logger   zerolog.Logger
	interval time.Duration
	idleTTL  time.Duration
	lockTTL  time.Duration
}

func NewReaper(registry *Registry, interval, idleTTL time.Duration, logger zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Reaper{
		registry: registry,
		logger:   logger.With().Str("component", "session_reaper").Logger(),
		interval: interval,
		idleTTL:  idleTTL,
		lockTTL:  LockTTL(interval),
	}
}

// LockTTL is how long a live-session lock survives without being extended.
func LockTTL(reapInterval time.Duration) time.Duration {
	return 3 * reapInterval
}

// Run blocks until context cancellation.
func (w *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Reaper) tick(ctx context.Context) {
	active, idle := w.registry.Snapshot(w.idleTTL)

	for _, l := range idle {
		w.logger.Info().Str("client_id", l.ClientID).Msg("disconnecting idle session")
		if l.Disconnect != nil {
			l.Disconnect()
		}
	}

	for _, l := range active {
		if l.Lock == nil {
			continue
		}
		ok, err := l.Lock.Extend(ctx, w.lockTTL)
		if err != nil {
			w.logger.Warn().Err(err).Str("client_id", l.ClientID).Msg("extend session lock failed")
			continue
		}
		if !ok {
			w.logger.Warn().Str("client_id", l.ClientID).Msg("session lock lost")
		}
	}

	if len(idle) > 0 || len(active) > 0 {
		w.logger.Debug().Int("active", len(active)).Int("reaped", len(idle)).Msg("reaper tick")
	}
}
