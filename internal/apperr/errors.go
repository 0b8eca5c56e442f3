// Package apperr defines sentinel errors shared across service boundaries.
package apperr

import "errors"

var (
	// ErrNotFound signals a missing note or journal folder.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals an optimistic-concurrency checksum mismatch.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists signals a create targeting an existing path.
	ErrAlreadyExists = errors.New("already exists")
	// ErrExternalTool signals that the analysis tool could not be started,
	// exited abnormally, or produced no stdout.
	ErrExternalTool = errors.New("external tool failed")
	// ErrParse signals tool output whose JSON-like region could not be
	// decoded into connection suggestions.
	ErrParse = errors.New("unparseable tool output")
)
