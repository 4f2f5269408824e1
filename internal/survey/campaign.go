package survey

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/surveypilot/internal/config"
)

// MaxOrderModeOrdinal is the number of order-mode options offered by the questionnaire.
const MaxOrderModeOrdinal = 8

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ParseClockTime parses an "HH:MM" value.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock time %q: hour out of range", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q: minute out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// OrderModePolicy selects the order-mode answer: uniformly at random, or a fixed 1-based ordinal.
type OrderModePolicy struct {
	// Ordinal is 0 for the random policy.
	Ordinal int
}

// ParseOrderMode accepts "random" or an ordinal between 1 and MaxOrderModeOrdinal.
func ParseOrderMode(s string) (OrderModePolicy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "random" {
		return OrderModePolicy{}, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > MaxOrderModeOrdinal {
		return OrderModePolicy{}, fmt.Errorf("order mode %q must be \"random\" or 1..%d", s, MaxOrderModeOrdinal)
	}
	return OrderModePolicy{Ordinal: n}, nil
}

// IsRandom reports whether the policy picks a uniformly random option.
func (p OrderModePolicy) IsRandom() bool { return p.Ordinal == 0 }

func (p OrderModePolicy) String() string {
	if p.IsRandom() {
		return "random"
	}
	return strconv.Itoa(p.Ordinal)
}

// CampaignConfig is the immutable set of parameters for a campaign. It is built once and passed by value.
type CampaignConfig struct {
	TargetURL string
	SiteID    string
	// DateStart and DateEnd are calendar dates at local midnight, DateStart <= DateEnd.
	DateStart    time.Time
	DateEnd      time.Time
	HourStart    ClockTime
	HourEnd      ClockTime
	OrderMode    OrderModePolicy
	Comment      string
	SurveyCount  int
	DelayBetween time.Duration
	MaxAttempts  int
	// DateFormat is the Go layout used when typing the visit date.
	DateFormat string
	// AgeDistribution holds the five bracket percentages, youngest first.
	AgeDistribution [5]int
}

const dateLayout = "2006-01-02"

// NewCampaignConfig resolves the file/flag configuration against the current time. Missing dates default
// to the lookback window ending today.
func NewCampaignConfig(c config.CampaignConfig, s config.SamplingConfig, now time.Time) (CampaignConfig, error) {
	if err := c.Validate(); err != nil {
		return CampaignConfig{}, err
	}
	if err := s.Validate(); err != nil {
		return CampaignConfig{}, err
	}

	today := midnight(now)
	end := today
	if c.DateEnd != "" {
		d, err := time.ParseInLocation(dateLayout, c.DateEnd, now.Location())
		if err != nil {
			return CampaignConfig{}, fmt.Errorf("campaign.date_end: %w", err)
		}
		end = d
	}
	start := end.AddDate(0, 0, -c.LookbackDays)
	if c.DateStart != "" {
		d, err := time.ParseInLocation(dateLayout, c.DateStart, now.Location())
		if err != nil {
			return CampaignConfig{}, fmt.Errorf("campaign.date_start: %w", err)
		}
		start = d
	}
	if start.After(end) {
		return CampaignConfig{}, fmt.Errorf("campaign date range is inverted: %s after %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	hourStart, err := ParseClockTime(c.HourStart)
	if err != nil {
		return CampaignConfig{}, fmt.Errorf("campaign.hour_start: %w", err)
	}
	hourEnd, err := ParseClockTime(c.HourEnd)
	if err != nil {
		return CampaignConfig{}, fmt.Errorf("campaign.hour_end: %w", err)
	}
	mode, err := ParseOrderMode(c.OrderMode)
	if err != nil {
		return CampaignConfig{}, fmt.Errorf("campaign.order_mode: %w", err)
	}

	cc := CampaignConfig{
		TargetURL:    strings.TrimSpace(c.TargetURL),
		SiteID:       c.SiteID,
		DateStart:    start,
		DateEnd:      end,
		HourStart:    hourStart,
		HourEnd:      hourEnd,
		OrderMode:    mode,
		Comment:      c.Comment,
		SurveyCount:  c.SurveyCount,
		DelayBetween: c.DelayBetween,
		MaxAttempts:  c.MaxAttempts,
		DateFormat:   s.DateFormat,
	}
	copy(cc.AgeDistribution[:], s.AgeDistribution)
	return cc, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
