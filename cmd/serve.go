package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/internal/browser"
	"github.com/xkilldash9x/surveypilot/internal/observability"
	"github.com/xkilldash9x/surveypilot/internal/server"
)

// newServeCmd creates the `serve` command, which exposes campaigns over HTTP.
func newServeCmd(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fill requests over HTTP",
		Long: `Starts the fill service. POST /fill runs one questionnaire and POST /fill-multiple runs up to
server.max_surveys; the JSON body may override restaurantNum, dateStart, dateEnd, hourStart, hourEnd,
orderMode and comment. GET / reports that the service is up. Requests start from the configured campaign.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			cfg := a.cfg

			manager := browser.NewManager(cfg, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Error during browser shutdown.", zap.Error(err))
				}
			}()

			return server.New(cfg, manager, logger).Run(cmd.Context())
		},
	}

	f := serveCmd.Flags()
	f.String("addr", "", "listen address (default :3000)")
	f.Int("max-surveys", 0, "largest count one /fill-multiple request may run")
	f.String("driver", "", "browser driver: chromedp, rod or snapshot")
	f.Bool("headless", false, "run the browser without a window")
	f.String("snapshot-dir", "", "directory of saved pages for the snapshot driver")
	for flag, key := range map[string]string{
		"addr":         "server.listen_addr",
		"max-surveys":  "server.max_surveys",
		"driver":       "browser.driver",
		"headless":     "browser.headless",
		"snapshot-dir": "browser.snapshot_dir",
	} {
		bindFlag(f, flag, key)
	}
	return serveCmd
}
