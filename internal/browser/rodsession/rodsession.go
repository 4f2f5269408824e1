// Package rodsession drives Chrome through go-rod. It sees pages through the same tagging scripts as the
// chromedp session, so both backends enumerate and address controls identically.
package rodsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/browser/dom"
	"github.com/xkilldash9x/surveypilot/internal/browser/stealth"
	"github.com/xkilldash9x/surveypilot/internal/config"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultActionTimeout     = 15 * time.Second
	directActionTimeout      = 3 * time.Second
)

// Session is a single rod page. It implements schemas.Driver.
type Session struct {
	id       string
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      config.BrowserConfig
	logger   *zap.Logger

	scrollSettle time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

var _ schemas.Driver = (*Session)(nil)

// Option customizes a Session.
type Option func(*Session)

// WithScrollSettle sets the pause between scrolling a control into view and clicking it.
func WithScrollSettle(d time.Duration) Option {
	return func(s *Session) { s.scrollSettle = d }
}

// NewLauncher builds the Chrome launcher for cfg and persona.
func NewLauncher(cfg config.BrowserConfig, persona schemas.Persona) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("no-first-run").
		Set("no-default-browser-check")
	if cfg.ExecPath != "" {
		l = l.Bin(cfg.ExecPath)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if persona.Width > 0 && persona.Height > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", persona.Width, persona.Height))
	}
	if persona.Locale != "" {
		l = l.Set("lang", persona.Locale)
	}
	for _, raw := range cfg.Args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// New launches Chrome, connects to it and opens a page carrying the persona.
func New(ctx context.Context, cfg config.BrowserConfig, persona schemas.Persona, logger *zap.Logger, opts ...Option) (*Session, error) {
	id := uuid.New().String()
	s := &Session{
		id:     id,
		cfg:    cfg,
		logger: logger.Named("rod").With(zap.String("session_id", id)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.launcher = NewLauncher(cfg, persona)
	controlURL, err := s.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	// The browser outlives the constructor's ctx; Close ends it.
	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.launcher.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.shutdown()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page.Context(context.Background())

	if err := s.applyPersona(ctx, persona); err != nil {
		_ = s.shutdown()
		return nil, err
	}

	s.logger.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// applyPersona installs the same identity the chromedp session presents.
func (s *Session) applyPersona(ctx context.Context, persona schemas.Persona) error {
	p := s.page.Context(ctx)

	if persona.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      persona.UserAgent,
			AcceptLanguage: persona.AcceptLanguage(),
			Platform:       persona.Platform,
		}); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}

	script, err := stealth.Script(persona)
	if err != nil {
		return err
	}
	if _, err := p.EvalOnNewDocument(script); err != nil {
		return fmt.Errorf("install evasions: %w", err)
	}

	if persona.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: persona.Timezone}).Call(p); err != nil {
			s.logger.Warn("Could not override timezone.", zap.String("timezone", persona.Timezone), zap.Error(err))
		}
	}
	if persona.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: persona.Locale}).Call(p); err != nil {
			s.logger.Warn("Could not override locale.", zap.String("locale", persona.Locale), zap.Error(err))
		}
	}
	if persona.Width > 0 && persona.Height > 0 {
		if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             int(persona.Width),
			Height:            int(persona.Height),
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	return nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// LoadPage navigates and waits for the load event.
func (s *Session) LoadPage(ctx context.Context, url string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.logger.Info("Navigating session.", zap.String("url", url))

	timeout := s.navigationTimeout()
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(navCtx)
	err := p.Navigate(url)
	if err == nil {
		err = p.WaitLoad()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s timed out after %v", schemas.ErrNavigation, url, timeout)
		}
		return fmt.Errorf("%w: %s: %v", schemas.ErrNavigation, url, err)
	}
	return nil
}

// VisibleText returns document.body.innerText.
func (s *Session) VisibleText(ctx context.Context) (string, error) {
	res, err := s.eval(ctx, "reading page text", dom.VisibleTextScript)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// FindControls tags and lists the controls of kind in document order.
func (s *Session) FindControls(ctx context.Context, kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	selector, err := kind.Selector()
	if err != nil {
		return nil, err
	}
	res, err := s.eval(ctx, fmt.Sprintf("enumerating %s controls", kind), dom.EnumerateScript(selector))
	if err != nil {
		return nil, err
	}
	return dom.ParseHandles(res.Value.Str(), kind)
}

// Label returns the text around a control.
func (s *Session) Label(ctx context.Context, h schemas.ControlHandle) (string, error) {
	res, err := s.eval(ctx, "reading label", dom.LabelScript(h.ID))
	if err != nil {
		return "", err
	}
	if res.Value.Nil() {
		return "", fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return res.Value.Str(), nil
}

// Click scrolls the control into view and clicks it, falling back to a script click when the pointer
// click cannot reach the element.
func (s *Session) Click(ctx context.Context, h schemas.ControlHandle) error {
	res, err := s.eval(ctx, "scrolling to control", dom.ScrollIntoViewScript(h.ID))
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	if s.scrollSettle > 0 {
		t := time.NewTimer(s.scrollSettle)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	err = s.direct(ctx, h, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Debug("Direct click failed, using script click.", zap.String("handle", h.ID), zap.Error(err))

	res, err = s.eval(ctx, "script click", dom.ForceClickScript(h.ID))
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return nil
}

// SetText clears the field and types value, assigning it from script when typing is refused.
func (s *Session) SetText(ctx context.Context, h schemas.ControlHandle, value string) error {
	res, err := s.eval(ctx, "clearing field", dom.ClearScript(h.ID))
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: %s is missing, disabled or read-only", schemas.ErrStaleHandle, h.ID)
	}

	err = s.direct(ctx, h, func(el *rod.Element) error {
		return el.Input(value)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Debug("Typing failed, assigning value from script.", zap.String("handle", h.ID), zap.Error(err))

	res, err = s.eval(ctx, "assigning field value", dom.SetValueScript(h.ID, value))
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return nil
}

// Close closes the browser and removes the launcher's temporary profile. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		s.closed.Store(true)
		err = s.shutdown()
	})
	return err
}

func (s *Session) shutdown() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return err
}

// direct runs a real input action on the element, bounded by the short direct-action timeout.
func (s *Session) direct(ctx context.Context, h schemas.ControlHandle, action func(*rod.Element) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(ctx, minDuration(directActionTimeout, s.actionTimeout()))
	defer cancel()

	el, err := s.page.Context(opCtx).Element(dom.Selector(h.ID))
	if err != nil {
		return err
	}
	return action(el)
}

// eval runs an expression script from the dom package and returns its by-value result.
func (s *Session) eval(ctx context.Context, what, script string) (*proto.RuntimeRemoteObject, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	opCtx, cancel := context.WithTimeout(ctx, s.actionTimeout())
	defer cancel()

	res, err := s.page.Context(opCtx).Eval("() => " + script)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %v: %w", what, s.actionTimeout(), opCtx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w", what, err)
	}
	return res, nil
}

func (s *Session) checkOpen() error {
	if s.closed.Load() {
		return schemas.ErrDriverClosed
	}
	return nil
}

func (s *Session) navigationTimeout() time.Duration {
	if s.cfg.NavigationTimeout > 0 {
		return s.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.ActionTimeout > 0 {
		return s.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
