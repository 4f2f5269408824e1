package survey

import (
	"fmt"
	"time"
)

// FillResult reports what a fill action did. Actions never abort a run; a miss is reported here instead.
type FillResult struct {
	Tag PageTag
	OK  bool
	// Reason wraps one of the package sentinel errors when OK is false.
	Reason error
	// Detail is a short human readable summary of the chosen answer.
	Detail string
}

func fillOK(detail string, args ...interface{}) FillResult {
	return FillResult{OK: true, Detail: fmt.Sprintf(detail, args...)}
}

func fillFailed(reason error, detail string, args ...interface{}) FillResult {
	return FillResult{OK: false, Reason: reason, Detail: fmt.Sprintf(detail, args...)}
}

// RunOutcome summarizes one questionnaire.
type RunOutcome struct {
	RunID        string    `json:"runId"`
	Index        int       `json:"index"`
	Completed    bool      `json:"completed"`
	AttemptsUsed int       `json:"attemptsUsed"`
	Trail        []PageTag `json:"trail"`
	Err          error     `json:"-"`
	Started      time.Time `json:"started"`
	Finished     time.Time `json:"finished"`
}

// CampaignReport aggregates the outcomes of a campaign in run order.
type CampaignReport struct {
	CampaignID string       `json:"campaignId"`
	Started    time.Time    `json:"started"`
	Finished   time.Time    `json:"finished"`
	Outcomes   []RunOutcome `json:"outcomes"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
}

func (r *CampaignReport) add(o RunOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Completed {
		r.Succeeded++
	} else {
		r.Failed++
	}
}
