package resolver

import "errors"

var (
	// ErrPredicateNotNamed is returned when a statement's predicate is a
	// blank node or literal. The enclosing document cannot be assembled.
	ErrPredicateNotNamed = errors.New("predicate is not a named node")

	// ErrMalformedPredicate is returned for a named predicate whose IRI has
	// neither a fragment nor a path segment.
	ErrMalformedPredicate = errors.New("predicate IRI cannot be decomposed")

	// ErrEmptyAllowList is returned when no vocabulary is allowed.
	ErrEmptyAllowList = errors.New("vocabulary allow-list is empty")
)
