package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/surveypilot/internal/config"
)

func TestConfigShow(t *testing.T) {
	t.Run("Defaults round-trip", func(t *testing.T) {
		res := executeCommand(t, "", "config", "show")
		require.NoError(t, res.err)

		var shown config.Config
		require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &shown))
		assert.Equal(t, config.DriverChromedp, shown.Browser.Driver)
		assert.Equal(t, 30, shown.Campaign.MaxAttempts)
		assert.Equal(t, []int{0, 10, 30, 20, 40}, shown.Sampling.AgeDistribution)
		assert.Contains(t, res.stdout, "delay_between: 5s")
	})

	t.Run("File, environment and flag precedence", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"surveypilot.yaml": `
campaign:
  site_id: "1111"
  comment: "from file"
logger:
  level: warn
`})
		t.Setenv("SURVEYPILOT_CAMPAIGN_COMMENT", "from env")

		res := executeCommand(t, "", "config", "show", "--config", filepath.Join(dir, "surveypilot.yaml"), "--log-level", "error")
		require.NoError(t, res.err)

		var shown config.Config
		require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &shown))
		assert.Equal(t, "1111", shown.Campaign.SiteID)
		assert.Equal(t, "from env", shown.Campaign.Comment)
		assert.Equal(t, "error", shown.Logger.Level)
	})
}
