package schemas

import (
	"context"
	"errors"
	"fmt"
)

// ControlKind names a family of interactive controls a Driver can enumerate.
type ControlKind string

const (
	// ControlExclusiveChoice is a radio style control: selecting one option deselects its siblings.
	ControlExclusiveChoice ControlKind = "exclusiveChoice"
	// ControlMultiChoice is a checkbox style control.
	ControlMultiChoice ControlKind = "multiChoice"
	// ControlButton covers buttons, submit inputs and elements with role=button.
	ControlButton ControlKind = "button"
	// ControlTextField covers single line, text-like inputs (text, date, number, tel...).
	ControlTextField ControlKind = "textField"
	// ControlFreeText is a multi line text area.
	ControlFreeText ControlKind = "freeText"
	// ControlRating covers the clickable cells of a satisfaction scale (smileys, scale cells, radio roles).
	ControlRating ControlKind = "rating"
)

// ControlKinds lists every kind in a stable order.
var ControlKinds = []ControlKind{
	ControlExclusiveChoice,
	ControlMultiChoice,
	ControlButton,
	ControlTextField,
	ControlFreeText,
	ControlRating,
}

// Selector returns the CSS selector that enumerates controls of this kind in document order.
// All driver implementations share these selectors so a page is seen the same way by each of them.
func (k ControlKind) Selector() (string, error) {
	switch k {
	case ControlExclusiveChoice:
		return `input[type="radio"]`, nil
	case ControlMultiChoice:
		return `input[type="checkbox"]`, nil
	case ControlButton:
		return `button, input[type="submit"], [role="button"]`, nil
	case ControlTextField:
		return `input:not([type="radio"]):not([type="checkbox"]):not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="image"]):not([type="file"])`, nil
	case ControlFreeText:
		return `textarea`, nil
	case ControlRating:
		return `[role="radio"], button, [class*="scale"] div`, nil
	default:
		return "", fmt.Errorf("unknown control kind %q", string(k))
	}
}

// ControlHandle identifies one control found on the current page. Handles are only valid until the
// next navigation or the next FindControls call for the same kind.
type ControlHandle struct {
	// ID is the driver specific identifier (a tagging attribute value for live browsers).
	ID   string      `json:"id"`
	Kind ControlKind `json:"kind"`
	// InputType is the declared type attribute, lower-cased ("date", "text", ...), if any.
	InputType string `json:"inputType,omitempty"`
	// Placeholder is the declared placeholder attribute, if any.
	Placeholder string `json:"placeholder,omitempty"`
	// Text is the control's own visible text or value (useful for buttons).
	Text string `json:"text,omitempty"`
}

// Driver is the capability surface the survey engine needs from a browser automation backend.
// Every call blocks until it completes or the context (or the driver's own action timeout) expires.
type Driver interface {
	// LoadPage navigates to url. Failures wrap ErrNavigation.
	LoadPage(ctx context.Context, url string) error
	// VisibleText returns the full text content of the current rendered document.
	VisibleText(ctx context.Context) (string, error)
	// FindControls returns the controls of the given kind in document order; an empty slice if none.
	FindControls(ctx context.Context, kind ControlKind) ([]ControlHandle, error)
	// Label returns best-effort contextual text near the control.
	Label(ctx context.Context, h ControlHandle) (string, error)
	// Click attempts a direct click and falls back to a forced (script) click if the direct one is obstructed.
	Click(ctx context.Context, h ControlHandle) error
	// SetText clears the field, then writes value.
	SetText(ctx context.Context, h ControlHandle, value string) error
	// Close releases the underlying browser resources.
	Close(ctx context.Context) error
}

var (
	// ErrNavigation is returned when a page cannot be loaded.
	ErrNavigation = errors.New("navigation failed")
	// ErrDriverClosed is returned when the driver or its browser is no longer reachable.
	ErrDriverClosed = errors.New("driver closed")
	// ErrStaleHandle is returned when a handle no longer resolves to an element on the page.
	ErrStaleHandle = errors.New("stale control handle")
)
