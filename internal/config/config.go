// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Campaign   CampaignConfig   `mapstructure:"campaign" yaml:"campaign"`
	Sampling   SamplingConfig   `mapstructure:"sampling" yaml:"sampling"`
	Timing     TimingConfig     `mapstructure:"timing" yaml:"timing"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Supported browser driver backends.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
	DriverSnapshot = "snapshot"
)

// BrowserConfig holds settings for the browser automation backend.
type BrowserConfig struct {
	Driver      string   `mapstructure:"driver" yaml:"driver"`
	Headless    bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath    string   `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir string   `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Args        []string `mapstructure:"args" yaml:"args"`
	// SnapshotDir holds the recorded *.html pages replayed by the snapshot driver.
	SnapshotDir       string        `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// MaxActionsPerSecond throttles interactions; zero disables throttling.
	MaxActionsPerSecond float64       `mapstructure:"max_actions_per_second" yaml:"max_actions_per_second"`
	KeepOpen            bool          `mapstructure:"keep_open" yaml:"keep_open"`
	Persona             PersonaConfig `mapstructure:"persona" yaml:"persona"`
}

// PersonaConfig mirrors schemas.Persona for file based configuration.
type PersonaConfig struct {
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`
	Platform  string   `mapstructure:"platform" yaml:"platform"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
	Width     int64    `mapstructure:"width" yaml:"width"`
	Height    int64    `mapstructure:"height" yaml:"height"`
	Timezone  string   `mapstructure:"timezone" yaml:"timezone"`
	Locale    string   `mapstructure:"locale" yaml:"locale"`
}

// CampaignConfig holds the raw, file/flag level parameters of one run. Dates and clock times stay strings
// here; they are parsed and validated when the immutable survey.CampaignConfig is built.
type CampaignConfig struct {
	TargetURL string `mapstructure:"target_url" yaml:"target_url"`
	SiteID    string `mapstructure:"site_id" yaml:"site_id"`
	// DateStart and DateEnd use the 2006-01-02 layout. Empty DateStart means LookbackDays before today,
	// empty DateEnd means today.
	DateStart    string `mapstructure:"date_start" yaml:"date_start"`
	DateEnd      string `mapstructure:"date_end" yaml:"date_end"`
	LookbackDays int    `mapstructure:"lookback_days" yaml:"lookback_days"`
	// HourStart and HourEnd use the 15:04 layout.
	HourStart    string        `mapstructure:"hour_start" yaml:"hour_start"`
	HourEnd      string        `mapstructure:"hour_end" yaml:"hour_end"`
	OrderMode    string        `mapstructure:"order_mode" yaml:"order_mode"`
	Comment      string        `mapstructure:"comment" yaml:"comment"`
	SurveyCount  int           `mapstructure:"survey_count" yaml:"survey_count"`
	DelayBetween time.Duration `mapstructure:"delay_between" yaml:"delay_between"`
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	// ReportPath, when set, receives the JSON campaign report.
	ReportPath string `mapstructure:"report_path" yaml:"report_path"`
}

// SamplingConfig tunes the random answer generation.
type SamplingConfig struct {
	// AgeDistribution holds the percentage of each of the five age brackets, youngest first.
	AgeDistribution []int  `mapstructure:"age_distribution" yaml:"age_distribution"`
	DateFormat      string `mapstructure:"date_format" yaml:"date_format"`
	// Seed makes runs reproducible; zero seeds from the clock.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// TimingConfig holds the settle delays that let the questionnaire finish rendering between steps.
type TimingConfig struct {
	PageLoadSettle    time.Duration `mapstructure:"page_load_settle" yaml:"page_load_settle"`
	IterationSettle   time.Duration `mapstructure:"iteration_settle" yaml:"iteration_settle"`
	PostFillSettle    time.Duration `mapstructure:"post_fill_settle" yaml:"post_fill_settle"`
	PostAdvanceSettle time.Duration `mapstructure:"post_advance_settle" yaml:"post_advance_settle"`
	ScrollSettle      time.Duration `mapstructure:"scroll_settle" yaml:"scroll_settle"`
	// Jitter adds normally distributed noise to each pause, as a fraction of the base delay.
	Jitter float64 `mapstructure:"jitter" yaml:"jitter"`
}

// ClassifierConfig optionally replaces the built-in page classification table.
type ClassifierConfig struct {
	Rules []RuleConfig `mapstructure:"rules" yaml:"rules,omitempty"`
}

// RuleConfig is one classification rule: the page gets Tag when every term of any Match group is present.
type RuleConfig struct {
	Tag   string     `mapstructure:"tag" yaml:"tag"`
	Match [][]string `mapstructure:"match" yaml:"match"`
}

// ServerConfig configures the HTTP fill service started by `surveypilot serve`.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// MaxSurveys caps the count a single /fill-multiple request may ask for.
	MaxSurveys int `mapstructure:"max_surveys" yaml:"max_surveys"`
	// DelayBetween is the pause between two questionnaires of one request.
	DelayBetween    time.Duration `mapstructure:"delay_between" yaml:"delay_between"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "surveypilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.action_timeout", "15s")
	v.SetDefault("browser.max_actions_per_second", 0.0)
	v.SetDefault("browser.keep_open", false)
	v.SetDefault("browser.persona.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("browser.persona.platform", "Win32")
	v.SetDefault("browser.persona.languages", []string{"fr-FR", "fr"})
	v.SetDefault("browser.persona.width", 1920)
	v.SetDefault("browser.persona.height", 1080)
	v.SetDefault("browser.persona.timezone", "Europe/Paris")
	v.SetDefault("browser.persona.locale", "fr-FR")

	// -- Campaign --
	v.SetDefault("campaign.target_url", "https://survey2.medallia.eu/?feedless-hellomcdo")
	v.SetDefault("campaign.site_id", "0610")
	v.SetDefault("campaign.lookback_days", 3)
	v.SetDefault("campaign.hour_start", "08:00")
	v.SetDefault("campaign.hour_end", "22:00")
	v.SetDefault("campaign.order_mode", "random")
	v.SetDefault("campaign.comment", "Très bonne expérience, personnel agréable et service rapide.")
	v.SetDefault("campaign.survey_count", 1)
	v.SetDefault("campaign.delay_between", "5s")
	v.SetDefault("campaign.max_attempts", 30)

	// -- Sampling --
	v.SetDefault("sampling.age_distribution", []int{0, 10, 30, 20, 40})
	v.SetDefault("sampling.date_format", "02/01/2006")
	v.SetDefault("sampling.seed", 0)

	// -- Timing --
	v.SetDefault("timing.page_load_settle", "2s")
	v.SetDefault("timing.iteration_settle", "1s")
	v.SetDefault("timing.post_fill_settle", "500ms")
	v.SetDefault("timing.post_advance_settle", "1500ms")
	v.SetDefault("timing.scroll_settle", "200ms")
	v.SetDefault("timing.jitter", 0.0)

	// -- Server --
	v.SetDefault("server.listen_addr", ":3000")
	v.SetDefault("server.max_surveys", 10)
	v.SetDefault("server.delay_between", "3s")
	v.SetDefault("server.request_timeout", "30m")
	v.SetDefault("server.shutdown_timeout", "30s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ExpandPaths resolves a leading "~" in every path-valued setting.
func (c *Config) ExpandPaths() error {
	paths := []*string{
		&c.Logger.LogFile,
		&c.Browser.ExecPath,
		&c.Browser.UserDataDir,
		&c.Browser.SnapshotDir,
		&c.Campaign.ReportPath,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values. Campaign dates and clock times
// are validated when the survey campaign is built, since relative defaults depend on the current date.
func (c *Config) Validate() error {
	switch c.Browser.Driver {
	case DriverChromedp, DriverRod:
	case DriverSnapshot:
		if c.Browser.SnapshotDir == "" {
			return fmt.Errorf("browser.snapshot_dir is required when browser.driver is %q", DriverSnapshot)
		}
	default:
		return fmt.Errorf("browser.driver must be one of %q, %q or %q", DriverChromedp, DriverRod, DriverSnapshot)
	}
	if c.Browser.MaxActionsPerSecond < 0 {
		return fmt.Errorf("browser.max_actions_per_second must not be negative")
	}
	if err := c.Campaign.Validate(); err != nil {
		return fmt.Errorf("campaign configuration invalid: %w", err)
	}
	if err := c.Sampling.Validate(); err != nil {
		return fmt.Errorf("sampling configuration invalid: %w", err)
	}
	if c.Timing.Jitter < 0 || c.Timing.Jitter > 1 {
		return fmt.Errorf("timing.jitter must be between 0.0 and 1.0")
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration invalid: %w", err)
	}
	for i, r := range c.Classifier.Rules {
		if strings.TrimSpace(r.Tag) == "" {
			return fmt.Errorf("classifier.rules[%d].tag is required", i)
		}
		if len(r.Match) == 0 {
			return fmt.Errorf("classifier.rules[%d].match must contain at least one group", i)
		}
	}
	return nil
}

// Validate checks the Campaign configuration.
func (c *CampaignConfig) Validate() error {
	if strings.TrimSpace(c.TargetURL) == "" {
		return fmt.Errorf("target_url is required")
	}
	if c.SurveyCount <= 0 {
		return fmt.Errorf("survey_count must be a positive integer")
	}
	if c.DelayBetween < 0 {
		return fmt.Errorf("delay_between must not be negative")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be a positive integer")
	}
	if c.LookbackDays < 0 {
		return fmt.Errorf("lookback_days must not be negative")
	}
	return nil
}

// Validate checks the Sampling configuration.
func (s *SamplingConfig) Validate() error {
	if len(s.AgeDistribution) != 5 {
		return fmt.Errorf("age_distribution must have exactly 5 entries, got %d", len(s.AgeDistribution))
	}
	for i, p := range s.AgeDistribution {
		if p < 0 {
			return fmt.Errorf("age_distribution[%d] must not be negative", i)
		}
	}
	if s.DateFormat == "" {
		return fmt.Errorf("date_format is required")
	}
	return nil
}

// Validate checks the Server configuration.
func (s *ServerConfig) Validate() error {
	if strings.TrimSpace(s.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if s.MaxSurveys <= 0 {
		return fmt.Errorf("max_surveys must be a positive integer")
	}
	if s.DelayBetween < 0 || s.RequestTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
