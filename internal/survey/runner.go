package survey

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/surveypilot/api/schemas"
	"go.uber.org/zap"
)

// Runner repeats the navigation loop for every questionnaire of a campaign.
type Runner struct {
	cfg       CampaignConfig
	navigator *Navigator
	pauser    Pauser
	logger    *zap.Logger
}

// NewRunner creates a Runner. pauser is only used for the delay between questionnaires.
func NewRunner(cfg CampaignConfig, navigator *Navigator, pauser Pauser, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		navigator: navigator,
		pauser:    pauser,
		logger:    logger.Named("runner"),
	}
}

// Run fills cfg.SurveyCount questionnaires in sequence with the same driver. A failed questionnaire is
// recorded and the campaign moves on. When ctx is cancelled the partial report is returned with ctx's error.
func (r *Runner) Run(ctx context.Context, drv schemas.Driver) (*CampaignReport, error) {
	report := &CampaignReport{
		CampaignID: uuid.NewString(),
		Started:    time.Now(),
	}
	log := r.logger.With(zap.String("campaign_id", report.CampaignID))
	log.Info("Starting campaign.", zap.Int("surveys", r.cfg.SurveyCount), zap.String("target", r.cfg.TargetURL))

	for i := 1; i <= r.cfg.SurveyCount; i++ {
		if i > 1 {
			log.Debug("Waiting before next questionnaire.", zap.Duration("delay", r.cfg.DelayBetween))
			if err := r.pauser.Pause(ctx, r.cfg.DelayBetween); err != nil {
				return r.finish(report, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return r.finish(report, err)
		}

		runID := uuid.NewString()
		outcome := r.navigator.Run(ctx, drv)
		outcome.RunID = runID
		outcome.Index = i
		report.add(outcome)

		fields := []zap.Field{
			zap.String("run_id", runID),
			zap.Int("index", i),
			zap.Int("attempts", outcome.AttemptsUsed),
			zap.Stringers("trail", outcome.Trail),
		}
		if outcome.Completed {
			log.Info("Questionnaire succeeded.", fields...)
		} else {
			log.Error("Questionnaire failed.", append(fields, zap.Error(outcome.Err))...)
		}

		if err := ctx.Err(); err != nil {
			return r.finish(report, err)
		}
	}
	return r.finish(report, nil)
}

func (r *Runner) finish(report *CampaignReport, err error) (*CampaignReport, error) {
	report.Finished = time.Now()
	r.logger.Info("Campaign finished.",
		zap.String("campaign_id", report.CampaignID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.NamedError("interrupted", err))
	return report, err
}
