package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/surveypilot/internal/config"
)

func TestParseClockTime(t *testing.T) {
	got, err := ParseClockTime("08:05")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(485), got)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, 5, got.Minute())
	assert.Equal(t, "08:05", got.String())

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd", "-1:00"} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, "ParseClockTime(%q)", bad)
	}
}

func TestParseOrderMode(t *testing.T) {
	p, err := ParseOrderMode("random")
	require.NoError(t, err)
	assert.True(t, p.IsRandom())
	assert.Equal(t, "random", p.String())

	p, err = ParseOrderMode(" 4 ")
	require.NoError(t, err)
	assert.False(t, p.IsRandom())
	assert.Equal(t, 4, p.Ordinal)
	assert.Equal(t, "4", p.String())

	for _, bad := range []string{"0", "9", "drive"} {
		_, err := ParseOrderMode(bad)
		assert.Error(t, err, "ParseOrderMode(%q)", bad)
	}
}

func TestNewCampaignConfig(t *testing.T) {
	defaults := config.NewDefaultConfig()

	t.Run("lookback window ending today", func(t *testing.T) {
		cc, err := NewCampaignConfig(defaults.Campaign, defaults.Sampling, fixedNow)
		require.NoError(t, err)

		today := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, today, cc.DateEnd)
		assert.Equal(t, today.AddDate(0, 0, -3), cc.DateStart)
		assert.Equal(t, ClockTime(8*60), cc.HourStart)
		assert.Equal(t, ClockTime(22*60), cc.HourEnd)
		assert.True(t, cc.OrderMode.IsRandom())
		assert.Equal(t, 30, cc.MaxAttempts)
		assert.Equal(t, [5]int{0, 10, 30, 20, 40}, cc.AgeDistribution)
		assert.Equal(t, "02/01/2006", cc.DateFormat)
	})

	t.Run("explicit dates", func(t *testing.T) {
		c := defaults.Campaign
		c.DateStart = "2026-01-05"
		c.DateEnd = "2026-01-05"
		c.OrderMode = "2"
		cc, err := NewCampaignConfig(c, defaults.Sampling, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, cc.DateStart, cc.DateEnd)
		assert.Equal(t, 2, cc.OrderMode.Ordinal)
	})

	t.Run("rejects bad values", func(t *testing.T) {
		cases := map[string]func(c *config.CampaignConfig){
			"inverted dates":  func(c *config.CampaignConfig) { c.DateStart, c.DateEnd = "2026-02-02", "2026-02-01" },
			"bad date":        func(c *config.CampaignConfig) { c.DateEnd = "12/03/2026" },
			"bad hour":        func(c *config.CampaignConfig) { c.HourStart = "25:00" },
			"bad order mode":  func(c *config.CampaignConfig) { c.OrderMode = "12" },
			"no surveys":      func(c *config.CampaignConfig) { c.SurveyCount = 0 },
			"negative delays": func(c *config.CampaignConfig) { c.DelayBetween = -time.Second },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				c := defaults.Campaign
				mutate(&c)
				_, err := NewCampaignConfig(c, defaults.Sampling, fixedNow)
				assert.Error(t, err)
			})
		}
	})
}
