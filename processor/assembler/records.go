package assembler

import (
	"sort"
	"strings"

	"github.com/c360studio/ontokn/vocabulary/obo"
)

// VertexKey identifies a term: its vocabulary (the collection) and local
// number (the document key).
type VertexKey struct {
	VocabularyID string
	LocalNumber  string
}

// ID is the graph-store document handle, "CL/0000235".
func (k VertexKey) ID() string { return k.VocabularyID + "/" + k.LocalNumber }

// Term is the original term form, "CL_0000235".
func (k VertexKey) Term() string { return k.VocabularyID + "_" + k.LocalNumber }

// VertexRecord is one vertex and its merged literal attributes.
type VertexRecord struct {
	Key        VertexKey
	Attributes map[string]*AttributeSet
}

func newVertexRecord(k VertexKey) *VertexRecord {
	return &VertexRecord{Key: k, Attributes: make(map[string]*AttributeSet)}
}

func (v *VertexRecord) add(attr, value string) {
	set, ok := v.Attributes[attr]
	if !ok {
		set = NewAttributeSet()
		v.Attributes[attr] = set
	}
	set.Add(value)
}

// Document returns the attributes as stored: single values collapse to a
// scalar.
func (v *VertexRecord) Document() map[string]any {
	doc := make(map[string]any, len(v.Attributes))
	for name, set := range v.Attributes {
		doc[name] = set.Value()
	}
	return doc
}

// Deprecated reports whether the term is retired: a "deprecated" value
// containing "true" or a "label" containing "obsolete".
func (v *VertexRecord) Deprecated() bool {
	return v.anyContains(obo.DeprecatedAttribute, "true") || v.anyContains(obo.LabelAttribute, "obsolete")
}

func (v *VertexRecord) anyContains(attr, needle string) bool {
	set, ok := v.Attributes[attr]
	if !ok {
		return false
	}
	for val := range set.values {
		if strings.Contains(val, needle) {
			return true
		}
	}
	return false
}

// EdgeKey identifies a relation between two terms regardless of label.
type EdgeKey struct {
	SubjectVocabularyID string
	ObjectVocabularyID  string
	SubjectNumber       string
	ObjectNumber        string
}

// Collection is the edge collection, "CL-GO".
func (k EdgeKey) Collection() string { return k.SubjectVocabularyID + "-" + k.ObjectVocabularyID }

// Key is the edge document key, "0000235-0008150".
func (k EdgeKey) Key() string { return k.SubjectNumber + "-" + k.ObjectNumber }

// From is the handle of the subject vertex.
func (k EdgeKey) From() VertexKey { return VertexKey{k.SubjectVocabularyID, k.SubjectNumber} }

// To is the handle of the object vertex.
func (k EdgeKey) To() VertexKey { return VertexKey{k.ObjectVocabularyID, k.ObjectNumber} }

// Edge attribute names.
const (
	LabelAttribute  = "Label"
	SourceAttribute = "Source"
)

// EdgeRecord is one edge with its accumulated labels and provenance.
type EdgeRecord struct {
	Key     EdgeKey
	Labels  map[string]struct{}
	Sources map[string]struct{}
}

func newEdgeRecord(k EdgeKey) *EdgeRecord {
	return &EdgeRecord{Key: k, Labels: make(map[string]struct{}), Sources: make(map[string]struct{})}
}

// Document returns the stored edge attributes.
func (e *EdgeRecord) Document() map[string]any {
	return map[string]any{
		LabelAttribute:  sortedKeys(e.Labels),
		SourceAttribute: sortedKeys(e.Sources),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
