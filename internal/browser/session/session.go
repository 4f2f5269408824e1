// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/browser/stealth"
	"github.com/xkilldash9x/surveypilot/internal/config"
)

// Session is a Chrome tab driven over the DevTools protocol. It implements schemas.Driver.
type Session struct {
	id      string
	ctx     context.Context // tab context; carries the CDP target
	cancel  context.CancelFunc
	cfg     config.BrowserConfig
	persona schemas.Persona
	logger  *zap.Logger

	scrollSettle time.Duration

	closeOnce sync.Once
}

var _ schemas.Driver = (*Session)(nil)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultActionTimeout     = 15 * time.Second
	// directClickTimeout bounds the real pointer click before falling back to a script click. Hidden
	// inputs behind styled labels would otherwise wait for visibility until the action timeout.
	directClickTimeout = 3 * time.Second
)

// Option customizes a Session.
type Option func(*Session)

// WithScrollSettle sets the pause between scrolling a control into view and clicking it.
func WithScrollSettle(d time.Duration) Option {
	return func(s *Session) { s.scrollSettle = d }
}

// AllocatorOptions builds the Chrome command line: the chromedp defaults minus the automation switches
// that the questionnaire can detect.
func AllocatorOptions(cfg config.BrowserConfig, persona schemas.Persona) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
	)
	if persona.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(persona.UserAgent))
	}
	if persona.Locale != "" {
		opts = append(opts, chromedp.Flag("lang", persona.Locale))
	}
	if persona.Width > 0 && persona.Height > 0 {
		opts = append(opts, chromedp.WindowSize(int(persona.Width), int(persona.Height)))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	for _, arg := range cfg.Args {
		opts = append(opts, argFlag(arg))
	}
	return opts
}

// New launches Chrome, opens a tab and applies the stealth persona. The browser lives until Close is
// called or parent is canceled.
func New(parent context.Context, cfg config.BrowserConfig, persona schemas.Persona, logger *zap.Logger, opts ...Option) (*Session, error) {
	id := uuid.New().String()
	log := logger.Named("chromedp").With(zap.String("session_id", id))

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, AllocatorOptions(cfg, persona)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))

	s := &Session{
		id:      id,
		ctx:     tabCtx,
		cancel:  func() { tabCancel(); allocCancel() },
		cfg:     cfg,
		persona: persona,
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}

	// The first Run starts the browser process.
	startCtx, startCancel := context.WithTimeout(parent, s.navigationTimeout())
	defer startCancel()
	if err := s.RunActions(startCtx, stealth.Apply(persona, log)); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// RunActions runs chromedp actions on the tab, bounded by ctx as well as the tab's own lifetime.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", schemas.ErrDriverClosed, err)
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		// Report the operation's own context error rather than the derived cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return fmt.Errorf("%w: %v", schemas.ErrDriverClosed, s.ctx.Err())
		}
	}
	return err
}

// evaluate runs script and decodes its JSON result into res.
func (s *Session) evaluate(ctx context.Context, script string, res interface{}) error {
	return s.RunActions(ctx, chromedp.Evaluate(script, res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		// chromedp.Cancel waits for the browser to exit; Detach keeps it alive past an already canceled ctx.
		closeCtx, cancel := context.WithTimeout(Detach(ctx), 10*time.Second)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()
		select {
		case err = <-done:
		case <-closeCtx.Done():
			err = closeCtx.Err()
		}
		s.cancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	})
	return err
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

// argFlag turns "--name" or "--name=value" into an allocator flag.
func argFlag(arg string) chromedp.ExecAllocatorOption {
	name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
	if hasValue {
		return chromedp.Flag(name, value)
	}
	return chromedp.Flag(name, true)
}
