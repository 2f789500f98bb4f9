// Package obo provides the namespace IRIs and structural predicate names
// used when reading OBO Foundry ontologies.
//
// Structural predicates are matched by their local name (the IRI fragment,
// or the final path segment when there is no fragment), so the constants in
// this package come in two forms: full IRIs for statements the reader looks
// up directly, and bare names for predicates the blank-node flattener
// recognizes inside anonymous structures.
package obo
