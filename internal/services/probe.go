package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rhytm/internal/shared"
)

const (
	// HealthPath is probed when no explicit probe URL is configured.
	HealthPath = "/health"

	defaultProbeInterval = 30 * time.Second
	failureThreshold     = 2
)

// Prober turns periodic health checks into a connectivity signal.
//
// A success reports online at once; offline is reported only after two consecutive failures.
type Prober struct {
	api      *Client
	path     string
	interval time.Duration
	logger   *log.Logger
}

// NewProber polls path on api every interval (30s when zero).
func NewProber(api *Client, path string, interval time.Duration, logger *log.Logger) *Prober {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Prober{
		api:      api,
		path:     path,
		interval: interval,
		logger:   shared.WithLogger(logger, "component", "prober"),
	}
}

// Check performs one health request. Any transport error or non-2xx status wraps [shared.ErrUnavailable].
func (p *Prober) Check(ctx context.Context) error {
	resp, err := p.api.Get(ctx, p.path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrUnavailable, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: health check returned %d", shared.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Watch probes immediately and then on every tick, sending a value only when the state changes.
//
// The channel is closed once ctx is done.
func (p *Prober) Watch(ctx context.Context) <-chan bool {
	out := make(chan bool)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var (
			reported *bool
			failures int
		)
		emit := func(online bool) bool {
			if reported != nil && *reported == online {
				return true
			}
			select {
			case out <- online:
				reported = &online
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			err := p.Check(ctx)
			if ctx.Err() != nil {
				return
			}

			if err == nil {
				failures = 0
				if !emit(true) {
					return
				}
			} else {
				failures++
				p.logger.Debug("health check failed", "failures", failures, "error", err)
				if failures >= failureThreshold && !emit(false) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
