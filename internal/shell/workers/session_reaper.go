// Package workers contains background workers for Inkpress.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/inkpress/inkpress/internal/shell/store"
)

// SessionReaperConfig configures the session reaper worker.
type SessionReaperConfig struct {
	// Interval is the time between cleanup cycles.
	// Default: 15 minutes.
	Interval time.Duration

	// Timeout is the timeout for a single cleanup query.
	// Default: 10 seconds.
	Timeout time.Duration
}

// DefaultSessionReaperConfig returns the default configuration.
func DefaultSessionReaperConfig() SessionReaperConfig {
	return SessionReaperConfig{
		Interval: 15 * time.Minute,
		Timeout:  10 * time.Second,
	}
}

// SessionReaper periodically deletes expired sessions. Expired tokens are
// already rejected at resolution time; the reaper just keeps the table from
// growing without bound.
type SessionReaper struct {
	store  store.Store
	config SessionReaperConfig
	logger *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionReaper creates a new session reaper worker.
func NewSessionReaper(s store.Store, config SessionReaperConfig, logger *slog.Logger) *SessionReaper {
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionReaper{
		store:  s,
		config: config,
		logger: logger.With("component", "session_reaper"),
	}
}

// Start begins the reaper background goroutine.
func (r *SessionReaper) Start() {
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go r.run()

	r.logger.Info("session reaper started", "interval", r.config.Interval)
}

// Stop stops the reaper and waits for the current cycle to finish.
func (r *SessionReaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.logger.Info("session reaper stopped")
}

func (r *SessionReaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// One pass at startup so restarts don't wait a full interval
	r.reap()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *SessionReaper) reap() {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.Timeout)
	defer cancel()

	removed, err := r.store.DeleteExpiredSessions(ctx)
	if err != nil {
		r.logger.Error("failed to delete expired sessions", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Info("expired sessions removed", "count", removed)
	}
}
