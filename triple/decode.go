package triple

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
)

const xsdString = "http://www.w3.org/2001/XMLSchema#string"

// ErrUnknownFormat is returned for files whose extension maps to no
// supported RDF serialization.
var ErrUnknownFormat = errors.New("unknown RDF format")

// FormatFor picks the serialization of a document from its file name.
// A trailing .gz is ignored.
func FormatFor(path string) (rdf.Format, error) {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".gz")
	switch filepath.Ext(name) {
	case ".owl", ".rdf", ".xml":
		return rdf.RDFXML, nil
	case ".ttl":
		return rdf.Turtle, nil
	case ".nt":
		return rdf.NTriples, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// DecodeFile reads and decodes one ontology document. Gzip-compressed files
// are recognized by their .gz suffix.
func DecodeFile(path string) (*Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	triples, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	return &Document{
		Source:  SourceToken(path),
		Path:    path,
		Triples: triples,
	}, nil
}

// Open opens a document for reading, transparently decompressing files with
// a .gz suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Decode reads every statement from r. A document is a set of statements, so
// exact repeats are dropped; first-seen order is kept.
func Decode(r io.Reader, format rdf.Format) ([]Triple, error) {
	dec := rdf.NewTripleDecoder(r, format)
	seen := make(map[Triple]struct{})
	var out []Triple

	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		t := Triple{
			Subject:   fromTerm(tr.Subj),
			Predicate: fromTerm(tr.Pred),
			Object:    fromTerm(tr.Obj),
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out, nil
}

func fromTerm(term rdf.Term) Node {
	switch term.Type() {
	case rdf.TermIRI:
		return Named(term.String())
	case rdf.TermBlank:
		return Blank(strings.TrimPrefix(term.String(), "_:"))
	case rdf.TermLiteral:
		n := Literal(term.String())
		if lit, ok := term.(rdf.Literal); ok {
			n.Lang = lit.Lang()
			if n.Lang == "" {
				if dt := lit.DataType.String(); dt != xsdString {
					n.Datatype = dt
				}
			}
		}
		return n
	default:
		return Node{}
	}
}
