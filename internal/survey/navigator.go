package survey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/config"
	"go.uber.org/zap"
)

// Settle holds the pauses taken around each step of the navigation loop.
type Settle struct {
	PageLoad    time.Duration
	Iteration   time.Duration
	PostFill    time.Duration
	PostAdvance time.Duration
}

// SettleFromConfig extracts the loop pauses from the timing configuration.
func SettleFromConfig(t config.TimingConfig) Settle {
	return Settle{
		PageLoad:    t.PageLoadSettle,
		Iteration:   t.IterationSettle,
		PostFill:    t.PostFillSettle,
		PostAdvance: t.PostAdvanceSettle,
	}
}

var nextButtonWords = []string{"suivant", "next"}

// Navigator drives a single questionnaire from the start page to the completion page.
type Navigator struct {
	cfg        CampaignConfig
	classifier *Classifier
	dispatcher *Dispatcher
	pauser     Pauser
	settle     Settle
	logger     *zap.Logger
}

// NewNavigator wires a navigation loop. Page order is never assumed: every iteration reclassifies the page.
func NewNavigator(cfg CampaignConfig, classifier *Classifier, dispatcher *Dispatcher, pauser Pauser, settle Settle, logger *zap.Logger) *Navigator {
	return &Navigator{
		cfg:        cfg,
		classifier: classifier,
		dispatcher: dispatcher,
		pauser:     pauser,
		settle:     settle,
		logger:     logger.Named("navigator"),
	}
}

// Run loads the start page and loops classify, fill, advance until the completion page shows up or
// the attempt budget is spent.
func (n *Navigator) Run(ctx context.Context, drv schemas.Driver) RunOutcome {
	out := RunOutcome{Started: time.Now()}

	finish := func(err error) RunOutcome {
		out.Err = err
		out.Finished = time.Now()
		return out
	}

	if err := drv.LoadPage(ctx, n.cfg.TargetURL); err != nil {
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		return finish(fmt.Errorf("%w: loading %s: %v", ErrDriverFailure, n.cfg.TargetURL, err))
	}
	if err := n.pauser.Pause(ctx, n.settle.PageLoad); err != nil {
		return finish(err)
	}

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		out.AttemptsUsed = attempt
		if err := n.pauser.Pause(ctx, n.settle.Iteration); err != nil {
			return finish(err)
		}

		text, err := drv.VisibleText(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return finish(ctx.Err())
			}
			return finish(fmt.Errorf("%w: reading page text: %v", ErrDriverFailure, err))
		}

		tag, rule := n.classifier.Explain(text)
		out.Trail = append(out.Trail, tag)
		log := n.logger.With(zap.Int("attempt", attempt), zap.Stringer("tag", tag))

		if tag == TagComplete {
			log.Info("Questionnaire completed.")
			out.Completed = true
			return finish(nil)
		}
		if tag == TagUnknown {
			log.Warn("Page not recognized, filling best effort.", zap.Error(ErrClassificationMiss))
		} else {
			log.Debug("Page classified.", zap.Int("rule", rule))
		}

		res := n.dispatcher.Fill(ctx, tag, drv)
		if res.OK {
			log.Info("Page filled.", zap.String("detail", res.Detail))
		} else {
			log.Warn("Page fill incomplete.", zap.String("detail", res.Detail), zap.Error(res.Reason))
		}

		if err := n.pauser.Pause(ctx, n.settle.PostFill); err != nil {
			return finish(err)
		}
		if err := n.advance(ctx, drv); err != nil {
			if ctx.Err() != nil {
				return finish(ctx.Err())
			}
			log.Warn("Could not advance to the next page.", zap.Error(err))
		}
		if err := n.pauser.Pause(ctx, n.settle.PostAdvance); err != nil {
			return finish(err)
		}
	}

	n.logger.Warn("Attempt budget exhausted.", zap.Int("max_attempts", n.cfg.MaxAttempts),
		zap.Stringers("trail", out.Trail))
	return finish(fmt.Errorf("%w after %d attempts", ErrNavigationStuck, n.cfg.MaxAttempts))
}

// advance clicks the first button whose text (or, for unlabeled buttons, nearby text) reads "next".
func (n *Navigator) advance(ctx context.Context, drv schemas.Driver) error {
	buttons, err := drv.FindControls(ctx, schemas.ControlButton)
	if err != nil {
		return fmt.Errorf("%w: enumerating buttons: %v", ErrInteractionFailed, err)
	}
	for _, b := range buttons {
		text := b.Text
		if text == "" {
			if text, err = drv.Label(ctx, b); err != nil {
				continue
			}
		}
		if !containsAny(text, nextButtonWords...) {
			continue
		}
		if err := drv.Click(ctx, b); err != nil {
			return fmt.Errorf("%w: clicking next: %v", ErrInteractionFailed, err)
		}
		return nil
	}
	return fmt.Errorf("%w: no next button among %d buttons", ErrControlNotFound, len(buttons))
}

// IsRunFailure reports whether err is one of the terminal run errors (as opposed to cancellation).
func IsRunFailure(err error) bool {
	return errors.Is(err, ErrNavigationStuck) || errors.Is(err, ErrDriverFailure)
}
