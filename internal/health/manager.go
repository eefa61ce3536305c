package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Manager runs checkers in parallel and collects their results.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a new health check manager with default 5-second timeout.
func NewManager(checkers ...Checker) *Manager {
	return &Manager{
		checkers: checkers,
		timeout:  5 * time.Second,
	}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.timeout = timeout
	return m
}

// Check runs every checker and returns the results in registration order.
func (m *Manager) Check(ctx context.Context) []*Result {
	results := make([]*Result, len(m.checkers))

	var g errgroup.Group
	for i, c := range m.checkers {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := time.Now()
			r := c.Check(checkCtx)
			if r == nil {
				r = Unhealthy("check returned no result")
			}
			r.Name = c.Name()
			if r.Latency == 0 {
				r.Latency = time.Since(start)
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Overall is unhealthy if any result is, degraded if any is, healthy
// otherwise.
func Overall(results []*Result) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
