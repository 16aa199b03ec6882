package domain

import "errors"

// Failure taxonomy for a single check tick. Adapters return these wrapped;
// the check runner decides how each degrades (abort tick, empty set, skip).
var (
	// ErrParse marks a malformed upstream payload. The tick treats the
	// source as empty instead of failing.
	ErrParse = errors.New("malformed upstream payload")

	// ErrMissingColumn marks a portal table without the expected headers.
	// Classification is skipped for the tick, nothing is notified.
	ErrMissingColumn = errors.New("expected column not found in portal table")
)
