// Package resolver maps ontology identifiers to (vocabulary, local number)
// pairs and predicates to human-readable labels.
//
// Both lookups depend on run-wide data, the vocabulary allow-list and the
// label dictionary read from the relations document, which a Context holds.
// A Context is read-only after construction and safe for concurrent use.
package resolver

import (
	"fmt"
	"strings"

	"github.com/c360studio/ontokn/triple"
)

// Provisional sub-vocabularies whose IRIs do not follow the
// <VOCAB>_<NUMBER> convention.
var rewriter = strings.NewReplacer(
	"/pcl/CS", "/PCLCS_",
	"/ensembl/ENSG", "/ENSG_",
)

// Identifier is the resolved form of a named node.
type Identifier struct {
	// Term is the final path segment, e.g. "CL_0000235".
	Term         string
	VocabularyID string
	LocalNumber  string
	// Valid is true when the term split cleanly and its vocabulary is
	// allowed.
	Valid bool
}

// Context carries the allow-list and label dictionary of one run.
type Context struct {
	allow map[string]struct{}
	dict  Dictionary
}

// NewContext builds a resolver context. An empty allow-list is a
// configuration error.
func NewContext(allow []string, dict Dictionary) (*Context, error) {
	if len(allow) == 0 {
		return nil, ErrEmptyAllowList
	}
	set := make(map[string]struct{}, len(allow))
	for _, id := range allow {
		set[id] = struct{}{}
	}
	if dict == nil {
		dict = Dictionary{}
	}
	return &Context{allow: set, dict: dict}, nil
}

// Allowed reports whether a vocabulary id is in the allow-list.
func (c *Context) Allowed(vocabularyID string) bool {
	_, ok := c.allow[vocabularyID]
	return ok
}

// Dictionary returns the label dictionary.
func (c *Context) Dictionary() Dictionary {
	return c.dict
}

// Resolve splits a named node into vocabulary id and local number. Blank
// nodes, literals and malformed identifiers resolve to an invalid
// Identifier; they are never an error.
func (c *Context) Resolve(n triple.Node) Identifier {
	if !n.IsNamed() {
		return Identifier{}
	}

	term, ok := triple.Named(rewriter.Replace(n.Value)).PathSegment()
	if !ok {
		return Identifier{}
	}

	tokens := strings.Split(term, "_")
	if len(tokens) == 1 {
		tokens = strings.Split(term, ":")
	}
	if len(tokens) != 2 || tokens[0] == "" || tokens[1] == "" {
		return Identifier{Term: term}
	}

	return Identifier{
		Term:         term,
		VocabularyID: tokens[0],
		LocalNumber:  tokens[1],
		Valid:        c.Allowed(tokens[0]),
	}
}

// Label returns the attribute or relation name of a predicate: the IRI
// fragment when present, otherwise the final path segment replaced by its
// dictionary label when the segment is a known term.
func (c *Context) Label(p triple.Node) (string, error) {
	if !p.IsNamed() {
		return "", fmt.Errorf("%w: %s", ErrPredicateNotNamed, p)
	}

	iri := rewriter.Replace(p.Value)
	if i := strings.LastIndexByte(iri, '#'); i >= 0 && i < len(iri)-1 {
		return iri[i+1:], nil
	}

	segment, ok := triple.Named(iri).PathSegment()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMalformedPredicate, p.Value)
	}
	if label, ok := c.dict[segment]; ok {
		return label, nil
	}
	return segment, nil
}

// CheckPredicates verifies every predicate of a document is a named node.
func (c *Context) CheckPredicates(triples []triple.Triple) error {
	for _, t := range triples {
		if !t.Predicate.IsNamed() {
			return fmt.Errorf("check predicates: %w: %s", ErrPredicateNotNamed, t)
		}
	}
	return nil
}
