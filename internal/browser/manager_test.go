// internal/browser/manager_test.go
package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/browser/snapshot"
	"github.com/xkilldash9x/surveypilot/internal/config"
)

func snapshotConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01.html"), []byte("<p>Quel est votre âge ?</p>"), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Browser.Driver = config.DriverSnapshot
	cfg.Browser.SnapshotDir = dir
	return cfg
}

func TestPersonaFromConfig(t *testing.T) {
	assert.Equal(t, schemas.DefaultPersona, PersonaFromConfig(config.PersonaConfig{}))

	p := PersonaFromConfig(config.PersonaConfig{
		UserAgent: "custom-agent",
		Languages: []string{"en-GB"},
		Width:     1280,
		Height:    720,
		Timezone:  "Europe/London",
	})
	assert.Equal(t, "custom-agent", p.UserAgent)
	assert.Equal(t, []string{"en-GB"}, p.Languages)
	assert.Equal(t, int64(1280), p.Width)
	assert.Equal(t, int64(720), p.Height)
	assert.Equal(t, "Europe/London", p.Timezone)
	assert.Equal(t, schemas.DefaultPersona.Platform, p.Platform, "unset fields keep the default")
	assert.Equal(t, schemas.DefaultPersona.Locale, p.Locale)

	half := PersonaFromConfig(config.PersonaConfig{Width: 800})
	assert.Equal(t, schemas.DefaultPersona.Width, half.Width, "a size needs both dimensions")
}

func TestManager_SnapshotDriver(t *testing.T) {
	cfg := snapshotConfig(t)
	m := NewManager(cfg, zaptest.NewLogger(t))
	ctx := context.Background()

	drv, err := m.NewDriver(ctx)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.Driver{}, drv)

	require.NoError(t, drv.LoadPage(ctx, "file://"+cfg.Browser.SnapshotDir))
	text, err := drv.VisibleText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Quel est votre âge ?", text)

	require.NoError(t, m.Shutdown(ctx))
	_, err = drv.VisibleText(ctx)
	assert.ErrorIs(t, err, schemas.ErrDriverClosed)
}

func TestManager_ThrottledDriver(t *testing.T) {
	cfg := snapshotConfig(t)
	cfg.Browser.MaxActionsPerSecond = 5
	m := NewManager(cfg, zaptest.NewLogger(t))

	drv, err := m.NewDriver(context.Background())
	require.NoError(t, err)
	throttled, ok := drv.(*Throttled)
	require.True(t, ok)
	assert.IsType(t, &snapshot.Driver{}, throttled.Unwrap())

	require.NoError(t, m.Release(context.Background(), drv))
	assert.NoError(t, m.Shutdown(context.Background()), "released drivers are not closed twice")
}

func TestManager_Errors(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser.Driver = "selenium"
	_, err := NewManager(cfg, zaptest.NewLogger(t)).NewDriver(context.Background())
	assert.ErrorContains(t, err, "unknown browser driver")

	cfg = config.NewDefaultConfig()
	cfg.Browser.Driver = config.DriverSnapshot
	cfg.Browser.SnapshotDir = filepath.Join(t.TempDir(), "missing")
	_, err = NewManager(cfg, zaptest.NewLogger(t)).NewDriver(context.Background())
	assert.ErrorContains(t, err, "failed to start snapshot driver")
}
