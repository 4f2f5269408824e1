// internal/browser/session/interaction.go
// Driver operations on the live tab. Each one derives its own timeout from the operation context so a
// slow page cannot stall the campaign, while the tab itself stays usable for the next call.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/browser/dom"
)

// LoadPage navigates the tab and waits for the document body.
func (s *Session) LoadPage(ctx context.Context, url string) error {
	s.logger.Info("Navigating session.", zap.String("url", url))

	navTimeout := s.navigationTimeout()
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	err := s.RunActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s timed out after %v", schemas.ErrNavigation, url, navTimeout)
		}
		return fmt.Errorf("%w: %s: %v", schemas.ErrNavigation, url, err)
	}
	return nil
}

// VisibleText returns document.body.innerText.
func (s *Session) VisibleText(ctx context.Context) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var text string
	if err := s.evaluate(opCtx, dom.VisibleTextScript, &text); err != nil {
		return "", s.opError(ctx, opCtx, "reading page text", err)
	}
	return text, nil
}

// FindControls tags and lists the controls of kind in document order.
func (s *Session) FindControls(ctx context.Context, kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	selector, err := kind.Selector()
	if err != nil {
		return nil, err
	}
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var raw string
	if err := s.evaluate(opCtx, dom.EnumerateScript(selector), &raw); err != nil {
		return nil, s.opError(ctx, opCtx, fmt.Sprintf("enumerating %s controls", kind), err)
	}
	return dom.ParseHandles(raw, kind)
}

// Label returns the text around a control.
func (s *Session) Label(ctx context.Context, h schemas.ControlHandle) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var label *string
	if err := s.evaluate(opCtx, dom.LabelScript(h.ID), &label); err != nil {
		return "", s.opError(ctx, opCtx, "reading label", err)
	}
	if label == nil {
		return "", fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return *label, nil
}

// Click scrolls the control into view and clicks it. When the real click does not go through (hidden
// input, overlay, animation) the click is dispatched from script instead.
func (s *Session) Click(ctx context.Context, h schemas.ControlHandle) error {
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var found bool
	if err := s.evaluate(opCtx, dom.ScrollIntoViewScript(h.ID), &found); err != nil {
		return s.opError(ctx, opCtx, "scrolling to control", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	if s.scrollSettle > 0 {
		if err := s.RunActions(opCtx, chromedp.Sleep(s.scrollSettle)); err != nil {
			return s.opError(ctx, opCtx, "waiting after scroll", err)
		}
	}

	directCtx, directCancel := context.WithTimeout(opCtx, minDuration(directClickTimeout, s.actionTimeout()))
	err := s.RunActions(directCtx, chromedp.Click(dom.Selector(h.ID), chromedp.ByQuery, chromedp.NodeVisible))
	directCancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Debug("Direct click failed, using script click.", zap.String("handle", h.ID), zap.Error(err))

	var clicked bool
	if err := s.evaluate(opCtx, dom.ForceClickScript(h.ID), &clicked); err != nil {
		return s.opError(ctx, opCtx, "script click", err)
	}
	if !clicked {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return nil
}

// SetText clears the field (firing input/change) and types value. Fields that swallow key events get
// the value assigned from script.
func (s *Session) SetText(ctx context.Context, h schemas.ControlHandle, value string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	var cleared bool
	if err := s.evaluate(opCtx, dom.ClearScript(h.ID), &cleared); err != nil {
		return s.opError(ctx, opCtx, "clearing field", err)
	}
	if !cleared {
		return fmt.Errorf("%w: %s is missing, disabled or read-only", schemas.ErrStaleHandle, h.ID)
	}

	directCtx, directCancel := context.WithTimeout(opCtx, minDuration(directClickTimeout, s.actionTimeout()))
	err := s.RunActions(directCtx, chromedp.SendKeys(dom.Selector(h.ID), value, chromedp.ByQuery))
	directCancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Debug("Typing failed, assigning value from script.", zap.String("handle", h.ID), zap.Error(err))

	var set bool
	if err := s.evaluate(opCtx, dom.SetValueScript(h.ID, value), &set); err != nil {
		return s.opError(ctx, opCtx, "assigning field value", err)
	}
	if !set {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return nil
}

// opError picks the most useful error after a failed operation: caller cancellation first, then a
// closed browser, then the operation timeout.
func (s *Session) opError(ctx, opCtx context.Context, what string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if opCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timed out after %v: %w", what, s.actionTimeout(), opCtx.Err())
	}
	return fmt.Errorf("%s failed: %w", what, err)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
