// Package scheduler runs periodic jobs and hands back cancellation
// handles, so callers can stop individual refresh loops without tearing
// down the rest.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// CancelFunc stops a scheduled job. Safe to call more than once; the
// second and later calls are no-ops. It does not wait for an in-flight
// run to finish.
type CancelFunc func()

// Scheduler runs a function at a fixed interval.
type Scheduler interface {
	// Schedule runs fn immediately and then every interval until the
	// returned handle is cancelled or the scheduler is closed.
	Schedule(interval time.Duration, fn func(ctx context.Context)) CancelFunc
}

// TickerScheduler implements Scheduler with one goroutine per job.
type TickerScheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Scheduler = (*TickerScheduler)(nil)

// New creates a scheduler whose jobs stop when ctx is cancelled.
func New(ctx context.Context) *TickerScheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &TickerScheduler{ctx: ctx, cancel: cancel}
}

// Schedule runs fn immediately and then every interval.
func (s *TickerScheduler) Schedule(interval time.Duration, fn func(ctx context.Context)) CancelFunc {
	jobCtx, jobCancel := context.WithCancel(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		fn(jobCtx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-ticker.C:
				fn(jobCtx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(jobCancel)
	}
}

// Close stops all jobs and waits for their goroutines to exit.
func (s *TickerScheduler) Close() {
	s.cancel()
	s.wg.Wait()
}
