package survey

import "errors"

var (
	// ErrClassificationMiss marks a page that matched no classifier rule.
	ErrClassificationMiss = errors.New("page matched no classification rule")
	// ErrControlNotFound marks a fill or advance step that found no suitable control.
	ErrControlNotFound = errors.New("expected control not found")
	// ErrInteractionFailed marks a driver click or text entry that failed.
	ErrInteractionFailed = errors.New("control interaction failed")
	// ErrNavigationStuck is the run outcome when the attempt budget ran out before the completion page.
	ErrNavigationStuck = errors.New("attempt budget exhausted before completion page")
	// ErrDriverFailure is the run outcome when the driver could not load or read a page.
	ErrDriverFailure = errors.New("driver failure")
)
