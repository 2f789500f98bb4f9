// Package triple provides the statement model shared by every processing
// stage: nodes, triples and documents, plus decoding from RDF serializations.
package triple

import (
	"net/url"
	"path"
	"strings"
)

// Kind discriminates the three kinds of RDF node.
type Kind uint8

const (
	// KindNamed is a node with a globally unique identifier (an IRI).
	KindNamed Kind = iota + 1
	// KindBlank is an anonymous node scoped to one document.
	KindBlank
	// KindLiteral is a value node.
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Node is one position of a statement. Nodes are immutable values and
// compare structurally with ==, so they can key maps directly.
type Node struct {
	Kind  Kind
	Value string
	// Lang and Datatype are only set on literals.
	Lang     string
	Datatype string
}

// Named returns a named node for iri.
func Named(iri string) Node { return Node{Kind: KindNamed, Value: iri} }

// Blank returns a blank node with the document-local id.
func Blank(id string) Node { return Node{Kind: KindBlank, Value: id} }

// Literal returns a plain literal.
func Literal(value string) Node { return Node{Kind: KindLiteral, Value: value} }

// IsNamed reports whether n is a named node.
func (n Node) IsNamed() bool { return n.Kind == KindNamed }

// IsBlank reports whether n is a blank node.
func (n Node) IsBlank() bool { return n.Kind == KindBlank }

// IsLiteral reports whether n is a literal.
func (n Node) IsLiteral() bool { return n.Kind == KindLiteral }

// LocalName returns the fragment of a named node's IRI, or its final path
// segment when there is no fragment. It reports false when the node is not
// named or the IRI cannot be decomposed.
func (n Node) LocalName() (string, bool) {
	if !n.IsNamed() {
		return "", false
	}
	u, err := url.Parse(n.Value)
	if err != nil {
		return "", false
	}
	if u.Fragment != "" {
		return u.Fragment, true
	}
	return lastSegment(u)
}

// PathSegment returns the final path segment of a named node's IRI,
// ignoring any fragment.
func (n Node) PathSegment() (string, bool) {
	if !n.IsNamed() {
		return "", false
	}
	u, err := url.Parse(n.Value)
	if err != nil {
		return "", false
	}
	return lastSegment(u)
}

func lastSegment(u *url.URL) (string, bool) {
	p := u.Path
	if p == "" {
		// urn:-style identifiers carry everything in the opaque part.
		p = u.Opaque
	}
	seg := path.Base(strings.TrimRight(p, "/"))
	if seg == "" || seg == "." || seg == "/" {
		return "", false
	}
	return seg, true
}

// String renders the node in N-Triples term syntax.
func (n Node) String() string {
	switch n.Kind {
	case KindNamed:
		return "<" + n.Value + ">"
	case KindBlank:
		return "_:" + n.Value
	case KindLiteral:
		s := `"` + escapeLiteral(n.Value) + `"`
		if n.Lang != "" {
			return s + "@" + n.Lang
		}
		if n.Datatype != "" {
			return s + "^^<" + n.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
