package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/surveypilot/internal/browser/snapshot"
	"github.com/xkilldash9x/surveypilot/internal/observability"
	"github.com/xkilldash9x/surveypilot/internal/service"
	"github.com/xkilldash9x/surveypilot/internal/survey"
)

// classification is the verdict for one saved page.
type classification struct {
	Tag  survey.PageTag
	Rule int
}

// newClassifyCmd creates the `classify` command, used to check the rule table against saved pages.
func newClassifyCmd(a *app) *cobra.Command {
	var (
		jobs    int
		explain bool
	)
	classifyCmd := &cobra.Command{
		Use:   "classify <page.html>...",
		Short: "Classify saved questionnaire pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := service.NewClassifier(a.cfg.Classifier)
			if err != nil {
				return err
			}
			results, err := classifyFiles(cmd, classifier, args, jobs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, path := range args {
				if explain {
					fmt.Fprintf(out, "%s\t%s\trule=%d\n", path, results[i].Tag, results[i].Rule)
				} else {
					fmt.Fprintf(out, "%s\t%s\n", path, results[i].Tag)
				}
			}
			return nil
		},
	}
	classifyCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "pages parsed in parallel")
	classifyCmd.Flags().BoolVar(&explain, "explain", false, "also print the index of the matching rule (-1 for none)")
	return classifyCmd
}

// classifyFiles parses and classifies every path concurrently. Results keep the order of paths.
func classifyFiles(cmd *cobra.Command, classifier *survey.Classifier, paths []string, jobs int) ([]classification, error) {
	logger := observability.GetLogger().Named("classify")
	results := make([]classification, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := snapshot.ParseFile(path)
			if err != nil {
				return err
			}
			tag, rule := classifier.Explain(page.VisibleText())
			results[i] = classification{Tag: tag, Rule: rule}
			logger.Debug("Page classified.", zap.String("file", path), zap.Stringer("tag", tag), zap.Int("rule", rule))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
