package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"UploadWatcher/internal/ports"
)

// IntervalScheduler drives a job on a fixed interval using time.Ticker.
// The job runs once immediately on Start and then on every tick.
type IntervalScheduler struct {
	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds an idle scheduler.
func NewIntervalScheduler() *IntervalScheduler {
	return &IntervalScheduler{}
}

// Start begins ticking. Starting an already-running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, every time.Duration, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if every <= 0 {
		return fmt.Errorf("interval must be positive, got %s", every)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
