// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/surveypilot/internal/survey"
)

// Reporter writes a campaign report to an output.
type Reporter interface {
	// Write renders one campaign report.
	Write(report *survey.CampaignReport) error
	// Close flushes and releases the underlying output (a no-op for stdout).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// CheckFormat reports whether New accepts format, so callers can reject it before doing any work.
func CheckFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// New creates a reporter for format ("json" or "text"). An empty path or "stdout" writes to stdout.
func New(format, outputPath string) (Reporter, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	if format == "json" {
		return NewJSONReporter(writer), nil
	}
	return NewTextReporter(writer), nil
}

// OutcomeDocument is the serialized form of a survey.RunOutcome. The error is kept as text.
type OutcomeDocument struct {
	RunID        string           `json:"runId"`
	Index        int              `json:"index"`
	Completed    bool             `json:"completed"`
	AttemptsUsed int              `json:"attemptsUsed"`
	Trail        []survey.PageTag `json:"trail"`
	Error        string           `json:"error,omitempty"`
	Started      string           `json:"started"`
	Finished     string           `json:"finished"`
	DurationMS   int64            `json:"durationMs"`
}

// Document is the serialized form of a survey.CampaignReport, shared by the file reporters and the HTTP service.
type Document struct {
	CampaignID string            `json:"campaignId"`
	Started    string            `json:"started"`
	Finished   string            `json:"finished"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Outcomes   []OutcomeDocument `json:"outcomes"`
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewDocument converts a campaign report into its serialized form.
func NewDocument(r *survey.CampaignReport) Document {
	doc := Document{
		CampaignID: r.CampaignID,
		Started:    r.Started.Format(timestampLayout),
		Finished:   r.Finished.Format(timestampLayout),
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Outcomes:   make([]OutcomeDocument, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		od := OutcomeDocument{
			RunID:        o.RunID,
			Index:        o.Index,
			Completed:    o.Completed,
			AttemptsUsed: o.AttemptsUsed,
			Trail:        o.Trail,
			Started:      o.Started.Format(timestampLayout),
			Finished:     o.Finished.Format(timestampLayout),
			DurationMS:   o.Finished.Sub(o.Started).Milliseconds(),
		}
		if od.Trail == nil {
			od.Trail = []survey.PageTag{}
		}
		if o.Err != nil {
			od.Error = o.Err.Error()
		}
		doc.Outcomes = append(doc.Outcomes, od)
	}
	return doc
}
