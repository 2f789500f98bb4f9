package resolver

import (
	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
)

// Dictionary maps a term (final path segment, e.g. "RO_0002202") to its
// human-readable label (e.g. "develops from").
type Dictionary map[string]string

// NewDictionary collects the first rdfs:label of every named subject in the
// relations document.
func NewDictionary(triples []triple.Triple) Dictionary {
	d := make(Dictionary)
	for _, t := range triples {
		if t.Predicate.Value != obo.RDFSLabel || !t.Subject.IsNamed() || !t.Object.IsLiteral() {
			continue
		}
		term, ok := triple.Named(rewriter.Replace(t.Subject.Value)).PathSegment()
		if !ok {
			continue
		}
		if _, seen := d[term]; !seen {
			d[term] = t.Object.Value
		}
	}
	return d
}
