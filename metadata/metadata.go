// Package metadata reads the descriptive header of ontology documents: the
// owl:Ontology statements carrying title, description, versions and root
// term.
package metadata

import (
	"regexp"

	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
)

var datePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// Descriptor describes one ontology document.
type Descriptor struct {
	Source      string `json:"source"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	PURL        string `json:"purl,omitempty"`
	VersionIRI  string `json:"version_iri,omitempty"`
	VersionInfo string `json:"version_info,omitempty"`
	Root        string `json:"root,omitempty"`
}

// Version returns the YYYY-MM-DD release date of the document, taken from
// the version info or, failing that, from the version IRI.
func (d Descriptor) Version() string {
	if v := datePattern.FindString(d.VersionInfo); v != "" {
		return v
	}
	return datePattern.FindString(d.VersionIRI)
}

// Extract collects the descriptor of a decoded document. The first value
// seen for each field wins; dc elements are preferred over dcterms.
func Extract(doc *triple.Document) Descriptor {
	d := Descriptor{Source: doc.Source}

	var header triple.Node
	for _, t := range doc.Triples {
		if t.Predicate.Value == obo.RDFType && t.Object.IsNamed() && t.Object.Value == obo.OWLOntology {
			header = t.Subject
			break
		}
	}
	if header.Value == "" {
		return d
	}
	if header.IsNamed() {
		d.PURL = header.Value
	}

	var termsTitle, termsDesc string
	for _, t := range doc.Triples {
		if t.Subject != header {
			continue
		}
		switch t.Predicate.Value {
		case obo.DCTitle:
			setOnce(&d.Title, t.Object.Value)
		case obo.DCTermsTitle:
			setOnce(&termsTitle, t.Object.Value)
		case obo.DCDescription:
			setOnce(&d.Description, t.Object.Value)
		case obo.DCTermsDesc:
			setOnce(&termsDesc, t.Object.Value)
		case obo.OWLVersionIRI:
			setOnce(&d.VersionIRI, t.Object.Value)
		case obo.OWLVersionInfo:
			setOnce(&d.VersionInfo, t.Object.Value)
		case obo.RootTerm:
			if t.Object.IsNamed() {
				setOnce(&d.Root, t.Object.Value)
			}
		}
	}
	setOnce(&d.Title, termsTitle)
	setOnce(&d.Description, termsDesc)
	return d
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
