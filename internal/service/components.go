// File: internal/service/components.go
package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/internal/config"
	"github.com/xkilldash9x/surveypilot/internal/survey"
)

// Components is the survey engine wired for one campaign. It holds no browser; the caller brings a
// driver to Runner.Run.
type Components struct {
	Campaign   survey.CampaignConfig
	Classifier *survey.Classifier
	Navigator  *survey.Navigator
	Runner     *survey.Runner
}

// NewComponents resolves the campaign against now and wires sampler, classifier, dispatcher, navigator
// and runner.
func NewComponents(cfg *config.Config, now time.Time, logger *zap.Logger) (*Components, error) {
	campaign, err := survey.NewCampaignConfig(cfg.Campaign, cfg.Sampling, now)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign: %w", err)
	}
	classifier, err := NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(campaign.SiteID) == "" {
		logger.Warn("No restaurant number configured; the visit page will be submitted without it and may not advance.")
	}

	sampler := survey.NewSeededSampler(cfg.Sampling.Seed, campaign.AgeDistribution)
	pauser := survey.NewSleepPauser(cfg.Timing.Jitter)
	dispatcher := survey.NewDispatcher(campaign, sampler, logger)
	navigator := survey.NewNavigator(campaign, classifier, dispatcher, pauser, survey.SettleFromConfig(cfg.Timing), logger)

	logger.Info("Campaign configured.",
		zap.String("target", campaign.TargetURL),
		zap.String("site_id", campaign.SiteID),
		zap.Int("surveys", campaign.SurveyCount),
		zap.String("dates", campaign.DateStart.Format("2006-01-02")+".."+campaign.DateEnd.Format("2006-01-02")),
		zap.Stringer("order_mode", campaign.OrderMode),
	)
	return &Components{
		Campaign:   campaign,
		Classifier: classifier,
		Navigator:  navigator,
		Runner:     survey.NewRunner(campaign, navigator, pauser, logger),
	}, nil
}

// NewClassifier builds the page classifier from the configured rules, or the built-in table when none
// are configured.
func NewClassifier(cc config.ClassifierConfig) (*survey.Classifier, error) {
	rules, err := survey.RulesFromConfig(cc.Rules)
	if err != nil {
		return nil, err
	}
	classifier, err := survey.NewClassifier(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier rules: %w", err)
	}
	return classifier, nil
}
