package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a database, graph or document is missing.
	ErrNotFound = errors.New("not found")

	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown graph backend")

	// ErrCollectionMissing is returned when a document is written to a
	// collection that was never ensured.
	ErrCollectionMissing = errors.New("collection not ensured")
)
