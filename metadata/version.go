package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"
	"golang.org/x/net/html/charset"

	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
)

// ErrNoVersion is returned when a document carries no dated version.
var ErrNoVersion = errors.New("no version found")

// FindVersion scans an RDF/XML document for its release date. Only the
// owl:Ontology header is read; the scan stops at its closing tag.
func FindVersion(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		inHeader bool
		inInfo   bool
		info     strings.Builder
		fromIRI  string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Space + el.Name.Local {
			case obo.OWLOntology:
				inHeader = true
			case obo.OWLVersionInfo:
				inInfo = true
				info.Reset()
			case obo.OWLVersionIRI:
				if fromIRI == "" {
					fromIRI = datePattern.FindString(resource(el))
				}
			}
		case xml.CharData:
			if inInfo {
				info.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Space + el.Name.Local {
			case obo.OWLVersionInfo:
				inInfo = false
				if v := datePattern.FindString(info.String()); v != "" {
					return v, nil
				}
			case obo.OWLOntology:
				if inHeader {
					return versionOrError(fromIRI)
				}
			}
		}
	}
	return versionOrError(fromIRI)
}

// FindVersionFile returns the release date of the document at path. RDF/XML
// documents are scanned; other serializations are decoded in full.
func FindVersionFile(path string) (string, error) {
	format, err := triple.FormatFor(path)
	if err != nil {
		return "", err
	}

	if format != rdf.RDFXML {
		doc, err := triple.DecodeFile(path)
		if err != nil {
			return "", err
		}
		return versionOrError(Extract(doc).Version())
	}

	r, err := triple.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return FindVersion(r)
}

func resource(el xml.StartElement) string {
	for _, a := range el.Attr {
		if a.Name.Space == obo.RDF && a.Name.Local == "resource" {
			return a.Value
		}
	}
	return ""
}

func versionOrError(v string) (string, error) {
	if v == "" {
		return "", ErrNoVersion
	}
	return v, nil
}
