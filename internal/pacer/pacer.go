package pacer

import (
	"context"
	"sync"
	"time"
)

// Pacer serializes tasks so that at least the configured pace separates the
// end of one task from the start of the next. Because tasks never overlap,
// consecutive starts are also at least pace apart.
type Pacer struct {
	mu   sync.Mutex
	pace time.Duration
	last time.Time
}

func New(pace time.Duration) *Pacer {
	return &Pacer{pace: pace}
}

func (p *Pacer) Pace() time.Duration {
	return p.pace
}

// Schedule waits for its turn and runs task. A cancelled context aborts the
// wait without running the task.
func (p *Pacer) Schedule(ctx context.Context, task func(context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.pace - time.Since(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	defer func() { p.last = time.Now() }()
	return task(ctx)
}
