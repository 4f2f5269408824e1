package reporting

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/surveypilot/internal/survey"
)

// JSONReporter writes each report as an indented JSON document.
type JSONReporter struct {
	w io.WriteCloser
}

// NewJSONReporter takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Write(report *survey.CampaignReport) error {
	if report == nil {
		return fmt.Errorf("nil campaign report")
	}
	data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(NewDocument(report), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode campaign report: %w", err)
	}
	data = append(data, '\n')
	if _, err := r.w.Write(data); err != nil {
		return fmt.Errorf("failed to write campaign report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	return r.w.Close()
}
