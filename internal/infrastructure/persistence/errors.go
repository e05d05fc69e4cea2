package persistence

import "errors"

// File store errors
var (
	// ErrInvalidEncoding is returned when a store file is not valid UTF-8
	ErrInvalidEncoding = errors.New("store file is not valid UTF-8")

	// ErrMissingColumn is returned when a required column is absent from the header row
	ErrMissingColumn = errors.New("store file missing required column")

	// ErrMalformedRow is returned when a cell cannot be parsed
	ErrMalformedRow = errors.New("store file has a malformed row")

	// ErrLockNotAcquired is returned when the file lock could not be taken before the context ended
	ErrLockNotAcquired = errors.New("could not acquire file lock")
)
