package reporting

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/xkilldash9x/surveypilot/internal/survey"
)

// TextReporter prints a human readable table, one line per questionnaire.
type TextReporter struct {
	w io.WriteCloser
}

// NewTextReporter takes ownership of w.
func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) Write(report *survey.CampaignReport) error {
	if report == nil {
		return fmt.Errorf("nil campaign report")
	}
	doc := NewDocument(report)

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Campaign %s: %d completed, %d failed\n", doc.CampaignID, doc.Succeeded, doc.Failed)
	fmt.Fprintln(tw, "#\tSTATUS\tATTEMPTS\tTRAIL\tERROR")
	for _, o := range doc.Outcomes {
		status := "failed"
		if o.Completed {
			status = "completed"
		}
		trail := make([]string, len(o.Trail))
		for i, tag := range o.Trail {
			trail[i] = tag.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", o.Index, status, o.AttemptsUsed, strings.Join(trail, ">"), o.Error)
	}
	return tw.Flush()
}

func (r *TextReporter) Close() error {
	return r.w.Close()
}
