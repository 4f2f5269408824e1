package survey

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pauser waits for asynchronous page rendering to settle.
type Pauser interface {
	Pause(ctx context.Context, d time.Duration) error
}

// SleepPauser sleeps for the requested duration, optionally perturbed by normally distributed jitter
// expressed as a fraction of the delay.
type SleepPauser struct {
	jitter float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSleepPauser creates a SleepPauser. A jitter of 0 sleeps for exactly the requested duration.
func NewSleepPauser(jitter float64) *SleepPauser {
	return &SleepPauser{
		jitter: jitter,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pause blocks for d, or until ctx is done.
func (p *SleepPauser) Pause(ctx context.Context, d time.Duration) error {
	d = p.perturb(d)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *SleepPauser) perturb(d time.Duration) time.Duration {
	if p.jitter <= 0 || d <= 0 {
		return d
	}
	p.mu.Lock()
	noise := p.rng.NormFloat64()
	p.mu.Unlock()
	out := d + time.Duration(float64(d)*p.jitter*noise)
	if out < 0 {
		return 0
	}
	return out
}
