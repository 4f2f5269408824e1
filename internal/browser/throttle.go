package browser

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/surveypilot/api/schemas"
)

// Throttled spaces out the page-changing calls of a Driver (navigation, clicks, typing). Reads pass
// straight through.
type Throttled struct {
	schemas.Driver
	limiter *rate.Limiter
}

var _ schemas.Driver = (*Throttled)(nil)

// NewThrottled allows at most perSecond interactions per second with no bursting.
func NewThrottled(next schemas.Driver, perSecond float64) *Throttled {
	return &Throttled{Driver: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (t *Throttled) LoadPage(ctx context.Context, url string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Driver.LoadPage(ctx, url)
}

func (t *Throttled) Click(ctx context.Context, h schemas.ControlHandle) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Driver.Click(ctx, h)
}

func (t *Throttled) SetText(ctx context.Context, h schemas.ControlHandle, value string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Driver.SetText(ctx, h, value)
}

// Unwrap returns the decorated driver.
func (t *Throttled) Unwrap() schemas.Driver {
	return t.Driver
}
