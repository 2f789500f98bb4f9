package pipeline

import "errors"

var (
	// ErrRelationsMissing is returned when no discovered document carries
	// the configured relations source token.
	ErrRelationsMissing = errors.New("relations document not found")

	// ErrNoDocuments is returned when discovery matches nothing.
	ErrNoDocuments = errors.New("no ontology documents found")
)
