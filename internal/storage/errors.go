// Package storage defines the archives for derived report data. Parsed
// trades are never stored.
package storage

import "errors"

var (
	// ErrNotFound is returned when no report or curve has the requested ID.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a report ID is archived twice.
	// Summaries and curves are written once and never updated.
	ErrDuplicateKey = errors.New("duplicate key: archived reports are immutable")

	// ErrInvalidInput is returned for a record without a report ID.
	ErrInvalidInput = errors.New("invalid input: report id required")
)
