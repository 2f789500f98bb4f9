package triple

import (
	"path/filepath"
	"strings"
)

// Triple is a single subject/predicate/object statement.
type Triple struct {
	Subject   Node
	Predicate Node
	Object    Node
}

// New builds a triple.
func New(s, p, o Node) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// String renders the triple as an N-Triples line without the newline.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// Document is the decoded content of one ontology file.
type Document struct {
	// Source is the document's source token: the file name without
	// directory and extensions, e.g. "mondo-simple" for mondo-simple.owl.gz.
	Source  string
	Path    string
	Triples []Triple
}

// SourceToken derives the source token of a document path.
func SourceToken(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}
