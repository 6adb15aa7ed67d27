package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined
	// the final confirmation.
	ErrAborted = errors.New("tui: aborted")
	// ErrNotReady is returned when every visible field was answered but the
	// form still fails its readiness check, for example when no validation
	// rule matches the answers.
	ErrNotReady = errors.New("tui: form is not ready to submit")
	// ErrNoOptions is returned when a select that still needs a value has
	// no options to offer, so no answer can satisfy it.
	ErrNoOptions = errors.New("tui: no options available")
)
