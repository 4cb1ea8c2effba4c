package domain

import "errors"

var (
	// ErrSchemaViolation is returned when a batch lacks a field the store requires.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrUnknownColumn is returned for filters or parameters naming a column outside the canonical schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownFunction is returned when an intent names a function missing from the registry.
	ErrUnknownFunction = errors.New("unrecognized function")
	// ErrUnresolvedIntent is returned when no catalog example matches a prompt.
	ErrUnresolvedIntent = errors.New("could not interpret prompt")
	// ErrUnknownReport is returned for a predefined report name that does not exist.
	ErrUnknownReport = errors.New("unknown report")
	// ErrInvalidRange is returned for malformed or inverted report date bounds.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrNoData is returned when there is no input file or no stored row to work on.
	ErrNoData = errors.New("no data")
	// ErrPartialAppend is returned when some insert chunks of a batch failed. The
	// batch may be appended again; rows already stored are skipped.
	ErrPartialAppend = errors.New("partial append")
	// ErrCacheMiss is returned by a ResultCache when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
)
