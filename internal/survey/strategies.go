package survey

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"go.uber.org/zap"
)

// FillFunc answers the questions of the current page through the driver.
type FillFunc func(ctx context.Context, drv schemas.Driver) FillResult

var (
	affirmativeTokens = []string{"oui", "yes"}
	negativeTokens    = []string{"non", "no"}
	noneTokens        = []string{"aucune", "aucun", "none"}
)

// Dispatcher maps page tags to fill actions.
type Dispatcher struct {
	cfg     CampaignConfig
	sampler *Sampler
	logger  *zap.Logger
	actions map[PageTag]FillFunc
}

// NewDispatcher registers the built-in fill action of every tag.
func NewDispatcher(cfg CampaignConfig, sampler *Sampler, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:     cfg,
		sampler: sampler,
		logger:  logger.Named("dispatcher"),
	}
	d.actions = map[PageTag]FillFunc{
		TagAge:          d.fillAge,
		TagDateTime:     d.fillDateTime,
		TagOrderMode:    d.fillOrderMode,
		TagPlace:        d.fillRandomChoice,
		TagPickup:       d.fillRandomChoice,
		TagDelivery:     d.fillRandomChoice,
		TagSatisfaction: d.fillSatisfaction,
		TagExact:        d.fillYes,
		TagProblem:      d.fillNo,
		TagImprove:      d.fillImprove,
		TagUnknown:      d.fillUnknown,
		TagComplete:     func(context.Context, schemas.Driver) FillResult { return fillOK("no action") },
	}
	return d
}

// Handle replaces the fill action of a tag.
func (d *Dispatcher) Handle(tag PageTag, fn FillFunc) {
	d.actions[tag] = fn
}

// Fill runs the action registered for tag. It never returns an error; misses are reported in the result.
func (d *Dispatcher) Fill(ctx context.Context, tag PageTag, drv schemas.Driver) FillResult {
	fn, found := d.actions[tag]
	if !found {
		fn = d.fillUnknown
	}
	res := fn(ctx, drv)
	res.Tag = tag
	return res
}

func (d *Dispatcher) fillAge(ctx context.Context, drv schemas.Driver) FillResult {
	bracket := d.sampler.Age()
	return d.clickNth(ctx, drv, schemas.ControlExclusiveChoice, bracket-1, "age bracket %d", bracket)
}

func (d *Dispatcher) fillOrderMode(ctx context.Context, drv schemas.Driver) FillResult {
	if d.cfg.OrderMode.IsRandom() {
		return d.fillRandomChoice(ctx, drv)
	}
	ordinal := d.cfg.OrderMode.Ordinal
	return d.clickNth(ctx, drv, schemas.ControlExclusiveChoice, ordinal-1, "order mode %d", ordinal)
}

func (d *Dispatcher) fillRandomChoice(ctx context.Context, drv schemas.Driver) FillResult {
	radios, err := drv.FindControls(ctx, schemas.ControlExclusiveChoice)
	if err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "enumerating choices")
	}
	if len(radios) == 0 {
		return fillFailed(ErrControlNotFound, "no exclusive choice on page")
	}
	idx := d.sampler.Intn(len(radios))
	if err := drv.Click(ctx, radios[idx]); err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "clicking option %d", idx+1)
	}
	return fillOK("random option %d of %d", idx+1, len(radios))
}

// clickNth clicks the control at a zero based index among the controls of kind.
func (d *Dispatcher) clickNth(ctx context.Context, drv schemas.Driver, kind schemas.ControlKind, idx int, what string, args ...interface{}) FillResult {
	detail := fmt.Sprintf(what, args...)
	controls, err := drv.FindControls(ctx, kind)
	if err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "%s: enumerating controls", detail)
	}
	if idx < 0 || idx >= len(controls) {
		return fillFailed(ErrControlNotFound, "%s: index %d out of %d controls", detail, idx, len(controls))
	}
	if err := drv.Click(ctx, controls[idx]); err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "%s: click", detail)
	}
	return fillOK("%s", detail)
}

type dateTimeField int

const (
	fieldNone dateTimeField = iota
	fieldDate
	fieldHour
	fieldMinute
	fieldSite
)

// classifyField picks what a text field on the date/time page expects. The first matching check wins.
func classifyField(h schemas.ControlHandle, label string) dateTimeField {
	switch {
	case h.InputType == "date" || containsAny(h.Placeholder, "jj"):
		return fieldDate
	case containsAny(label, "heure") || containsAny(h.Placeholder, "heure"):
		return fieldHour
	case containsAny(label, "minute") || containsAny(h.Placeholder, "minute"):
		return fieldMinute
	case containsAny(label, "restaurant", "numéro"):
		return fieldSite
	case containsAny(label, "jour", "date"):
		return fieldDate
	default:
		return fieldNone
	}
}

func (d *Dispatcher) fillDateTime(ctx context.Context, drv schemas.Driver) FillResult {
	draw := d.sampler.Draw(d.cfg)
	date := draw.Date.Format(d.cfg.DateFormat)

	fields, err := drv.FindControls(ctx, schemas.ControlTextField)
	if err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "enumerating text fields")
	}

	written := 0
	var lastErr error
	for _, f := range fields {
		label, err := drv.Label(ctx, f)
		if err != nil {
			d.logger.Debug("Could not read field label.", zap.String("field", f.ID), zap.Error(err))
		}

		var value string
		switch classifyField(f, label) {
		case fieldDate:
			value = date
		case fieldHour:
			value = draw.Hour
		case fieldMinute:
			value = draw.Minute
		case fieldSite:
			value = d.cfg.SiteID
		}
		if value == "" {
			continue
		}
		if err := drv.SetText(ctx, f, value); err != nil {
			lastErr = err
			continue
		}
		written++
	}

	detail := fmt.Sprintf("date %s %s:%s site %s", date, draw.Hour, draw.Minute, d.cfg.SiteID)
	if written == 0 {
		if lastErr != nil {
			return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, lastErr), "%s", detail)
		}
		return fillFailed(ErrControlNotFound, "%s: no recognizable field among %d", detail, len(fields))
	}
	return fillOK("%s (%d fields)", detail, written)
}

func (d *Dispatcher) fillSatisfaction(ctx context.Context, drv schemas.Driver) FillResult {
	rated := d.clickBestRating(ctx, drv)
	if d.cfg.Comment == "" {
		return rated
	}

	// The comment goes in even when the scale could not be clicked.
	areas, err := drv.FindControls(ctx, schemas.ControlFreeText)
	if err != nil {
		if !rated.OK {
			return rated
		}
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "enumerating comment areas")
	}
	written := 0
	var writeErr error
	for _, area := range areas {
		if err := drv.SetText(ctx, area, d.cfg.Comment); err != nil {
			writeErr = err
			continue
		}
		written++
	}

	switch {
	case !rated.OK:
		rated.Detail = fmt.Sprintf("%s, comment in %d of %d areas", rated.Detail, written, len(areas))
		return rated
	case writeErr != nil:
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, writeErr), "writing comment (%d of %d areas)", written, len(areas))
	}
	return fillOK("%s, comment in %d areas", rated.Detail, written)
}

// clickBestRating clicks the first rating control in document order, taken as the most positive one.
func (d *Dispatcher) clickBestRating(ctx context.Context, drv schemas.Driver) FillResult {
	ratings, err := drv.FindControls(ctx, schemas.ControlRating)
	if err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "enumerating rating controls")
	}
	if len(ratings) == 0 {
		return fillFailed(ErrControlNotFound, "no rating control on page")
	}
	d.logger.Debug("Assuming first rating control is the most positive.",
		zap.String("control", ratings[0].ID), zap.String("text", ratings[0].Text))
	if err := drv.Click(ctx, ratings[0]); err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "clicking rating")
	}
	return fillOK("rating 1 of %d", len(ratings))
}

func (d *Dispatcher) fillYes(ctx context.Context, drv schemas.Driver) FillResult {
	return d.clickByToken(ctx, drv, schemas.ControlExclusiveChoice, affirmativeTokens, false)
}

func (d *Dispatcher) fillNo(ctx context.Context, drv schemas.Driver) FillResult {
	return d.clickByToken(ctx, drv, schemas.ControlExclusiveChoice, negativeTokens, true)
}

func (d *Dispatcher) fillImprove(ctx context.Context, drv schemas.Driver) FillResult {
	return d.clickByToken(ctx, drv, schemas.ControlMultiChoice, noneTokens, true)
}

// clickByToken clicks the first control whose label has one of tokens as a word. Without a match it
// falls back to the first control, or to the last one when fallbackLast is set.
func (d *Dispatcher) clickByToken(ctx context.Context, drv schemas.Driver, kind schemas.ControlKind, tokens []string, fallbackLast bool) FillResult {
	controls, err := drv.FindControls(ctx, kind)
	if err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "enumerating %s controls", kind)
	}
	if len(controls) == 0 {
		return fillFailed(ErrControlNotFound, "no %s control on page", kind)
	}

	chosen, matched := -1, ""
	for i, c := range controls {
		label, err := drv.Label(ctx, c)
		if err != nil {
			continue
		}
		if hasToken(label, tokens...) {
			chosen, matched = i, label
			break
		}
	}
	if chosen < 0 {
		chosen = 0
		if fallbackLast {
			chosen = len(controls) - 1
		}
		d.logger.Debug("No labelled match, using fallback control.",
			zap.Strings("tokens", tokens), zap.Int("index", chosen))
	}

	if err := drv.Click(ctx, controls[chosen]); err != nil {
		return fillFailed(fmt.Errorf("%w: %v", ErrInteractionFailed, err), "clicking %s control %d", kind, chosen+1)
	}
	if matched != "" {
		return fillOK("selected %q", Normalize(matched))
	}
	return fillOK("fallback %s control %d of %d", kind, chosen+1, len(controls))
}

func (d *Dispatcher) fillUnknown(ctx context.Context, drv schemas.Driver) FillResult {
	res := d.fillRandomChoice(ctx, drv)
	if res.OK || !errors.Is(res.Reason, ErrControlNotFound) {
		return res
	}
	res = d.fillImprove(ctx, drv)
	if !res.OK && errors.Is(res.Reason, ErrControlNotFound) {
		return fillFailed(ErrControlNotFound, "no choice control on unrecognized page")
	}
	return res
}
