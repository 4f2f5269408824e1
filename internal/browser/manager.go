// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/browser/rodsession"
	"github.com/xkilldash9x/surveypilot/internal/browser/session"
	"github.com/xkilldash9x/surveypilot/internal/browser/snapshot"
	"github.com/xkilldash9x/surveypilot/internal/config"
)

// Manager creates drivers for the configured backend and closes whatever is still open on Shutdown.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	mu      sync.Mutex
	drivers map[schemas.Driver]struct{}
}

// NewManager creates a browser manager. No browser is started until NewDriver is called.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		logger:  logger.Named("browser_manager"),
		drivers: make(map[schemas.Driver]struct{}),
	}
}

// PersonaFromConfig overlays the configured persona fields on schemas.DefaultPersona.
func PersonaFromConfig(pc config.PersonaConfig) schemas.Persona {
	p := schemas.DefaultPersona
	if pc.UserAgent != "" {
		p.UserAgent = pc.UserAgent
	}
	if pc.Platform != "" {
		p.Platform = pc.Platform
	}
	if len(pc.Languages) > 0 {
		p.Languages = append([]string(nil), pc.Languages...)
	}
	if pc.Width > 0 && pc.Height > 0 {
		p.Width, p.Height = pc.Width, pc.Height
	}
	if pc.Timezone != "" {
		p.Timezone = pc.Timezone
	}
	if pc.Locale != "" {
		p.Locale = pc.Locale
	}
	return p
}

// NewDriver starts a driver for cfg.Browser.Driver, throttled when max_actions_per_second is set.
func (m *Manager) NewDriver(ctx context.Context) (schemas.Driver, error) {
	bc := m.cfg.Browser
	persona := PersonaFromConfig(bc.Persona)

	var (
		drv schemas.Driver
		err error
	)
	switch bc.Driver {
	case config.DriverChromedp, "":
		drv, err = session.New(ctx, bc, persona, m.logger, session.WithScrollSettle(m.cfg.Timing.ScrollSettle))
	case config.DriverRod:
		drv, err = rodsession.New(ctx, bc, persona, m.logger, rodsession.WithScrollSettle(m.cfg.Timing.ScrollSettle))
	case config.DriverSnapshot:
		drv, err = snapshot.Open(bc.SnapshotDir, m.logger)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", bc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start %s driver: %w", bc.Driver, err)
	}

	if bc.MaxActionsPerSecond > 0 {
		drv = NewThrottled(drv, bc.MaxActionsPerSecond)
	}

	m.mu.Lock()
	m.drivers[drv] = struct{}{}
	m.mu.Unlock()

	m.logger.Info("Driver ready.", zap.String("driver", bc.Driver), zap.String("user_agent", persona.UserAgent))
	return drv, nil
}

// Release closes one driver and forgets it.
func (m *Manager) Release(ctx context.Context, drv schemas.Driver) error {
	m.mu.Lock()
	delete(m.drivers, drv)
	m.mu.Unlock()
	return drv.Close(ctx)
}

// Shutdown closes every driver that has not been released.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]schemas.Driver, 0, len(m.drivers))
	for d := range m.drivers {
		open = append(open, d)
	}
	m.drivers = make(map[schemas.Driver]struct{})
	m.mu.Unlock()

	var errs []error
	for _, d := range open {
		if err := d.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(open) > 0 {
		m.logger.Info("Browser manager shut down.", zap.Int("closed", len(open)))
	}
	return errors.Join(errs...)
}
