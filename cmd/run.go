package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/internal/browser"
	"github.com/xkilldash9x/surveypilot/internal/config"
	"github.com/xkilldash9x/surveypilot/internal/observability"
	"github.com/xkilldash9x/surveypilot/internal/reporting"
	"github.com/xkilldash9x/surveypilot/internal/service"
	"github.com/xkilldash9x/surveypilot/internal/survey"
)

const shutdownGracePeriod = 15 * time.Second

// newRunCmd creates the `run` command, which fills a campaign of questionnaires.
func newRunCmd(a *app) *cobra.Command {
	var (
		interactive  bool
		reportFormat string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Fill a campaign of questionnaires",
		Long: `Opens the questionnaire start page and fills it survey_count times. Every page is classified
from its visible text and answered with the matching strategy, so the page order does not matter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := a.cfg

			if cfg.Campaign.ReportPath != "" {
				if err := reporting.CheckFormat(reportFormat); err != nil {
					return err
				}
			}

			// Prompts and the keep-open wait share one reader so buffered answers are not lost.
			stdin := bufio.NewReader(cmd.InOrStdin())
			if interactive {
				promptCampaign(stdin, cmd.OutOrStdout(), &cfg.Campaign, logger)
			}

			components, err := service.NewComponents(cfg, time.Now(), logger)
			if err != nil {
				return err
			}

			manager := browser.NewManager(cfg, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Error during browser shutdown.", zap.Error(err))
				}
			}()

			drv, err := manager.NewDriver(ctx)
			if err != nil {
				return err
			}

			report, runErr := components.Runner.Run(ctx, drv)
			fmt.Fprintf(cmd.OutOrStdout(), "Campaign %s: %d of %d questionnaires completed.\n",
				report.CampaignID, report.Succeeded, len(report.Outcomes))

			if cfg.Campaign.ReportPath != "" {
				if err := writeReport(report, reportFormat, cfg.Campaign.ReportPath); err != nil {
					logger.Error("Could not write the campaign report.", zap.Error(err))
					if runErr == nil {
						runErr = err
					}
				} else {
					logger.Info("Campaign report written.", zap.String("path", cfg.Campaign.ReportPath))
				}
			}

			if cfg.Browser.KeepOpen && ctx.Err() == nil {
				fmt.Fprint(cmd.OutOrStdout(), "\nPress Enter to close the browser...")
				_, _ = stdin.ReadString('\n')
			}
			return runErr
		},
	}

	f := runCmd.Flags()
	f.String("url", "", "questionnaire start page")
	f.String("site-id", "", "restaurant number typed on the visit page")
	f.IntP("count", "n", 0, "number of questionnaires to fill")
	f.String("order-mode", "", `order mode option: "random" or its 1-based position`)
	f.String("date-start", "", "first visit date (2006-01-02)")
	f.String("date-end", "", "last visit date (2006-01-02)")
	f.String("hour-start", "", "earliest visit time (15:04)")
	f.String("hour-end", "", "latest visit time (15:04)")
	f.String("comment", "", "free text comment left on the satisfaction page")
	f.Duration("delay", 0, "pause between two questionnaires")
	f.Int("max-attempts", 0, "classify-fill-advance cycles allowed per questionnaire")
	f.String("driver", "", "browser driver: chromedp, rod or snapshot")
	f.Bool("headless", false, "run the browser without a window")
	f.String("snapshot-dir", "", "directory of saved pages for the snapshot driver")
	f.Int64("seed", 0, "random seed for reproducible answers")
	f.String("report", "", "write the campaign report to this path")
	f.Bool("keep-open", false, "wait for Enter before closing the browser")
	f.StringVar(&reportFormat, "report-format", "json", "report format: json or text")
	f.BoolVarP(&interactive, "interactive", "i", false, "prompt for the survey count and restaurant number")

	for flag, key := range map[string]string{
		"url":          "campaign.target_url",
		"site-id":      "campaign.site_id",
		"count":        "campaign.survey_count",
		"order-mode":   "campaign.order_mode",
		"date-start":   "campaign.date_start",
		"date-end":     "campaign.date_end",
		"hour-start":   "campaign.hour_start",
		"hour-end":     "campaign.hour_end",
		"comment":      "campaign.comment",
		"delay":        "campaign.delay_between",
		"max-attempts": "campaign.max_attempts",
		"report":       "campaign.report_path",
		"driver":       "browser.driver",
		"headless":     "browser.headless",
		"snapshot-dir": "browser.snapshot_dir",
		"keep-open":    "browser.keep_open",
		"seed":         "sampling.seed",
	} {
		bindFlag(f, flag, key)
	}
	return runCmd
}

// promptCampaign asks for the survey count and restaurant number. An empty or invalid answer keeps the
// configured value.
func promptCampaign(r *bufio.Reader, out io.Writer, c *config.CampaignConfig, logger *zap.Logger) {
	fmt.Fprintf(out, "Number of questionnaires [%d]: ", c.SurveyCount)
	if answer := readAnswer(r); answer != "" {
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 {
			logger.Warn("Ignoring invalid questionnaire count.", zap.String("answer", answer))
		} else {
			c.SurveyCount = n
		}
	}

	fmt.Fprintf(out, "Restaurant number [%s]: ", c.SiteID)
	if answer := readAnswer(r); answer != "" {
		c.SiteID = answer
	}
}

func readAnswer(r *bufio.Reader) string {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(line)
}

func writeReport(report *survey.CampaignReport, format, path string) error {
	r, err := reporting.New(format, path)
	if err != nil {
		return err
	}
	if err := r.Write(report); err != nil {
		_ = r.Close()
		return err
	}
	return r.Close()
}
