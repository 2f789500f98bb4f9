// Package export dumps cleaned ontology statements as N-Triples or Turtle
// for auditing what the graph was built from.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
)

// localName is what Turtle accepts unquoted after a prefix, restricted to
// the characters OBO identifiers use.
var localName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// defaultPrefixes returns the namespace prefixes used in Turtle output.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":      obo.RDF,
		"rdfs":     obo.RDFS,
		"owl":      obo.OWL,
		"xsd":      obo.XSD,
		"dc":       obo.DC,
		"dcterms":  obo.DCTerms,
		"obo":      obo.OBO,
		"oboInOwl": obo.OBOInOwl,
	}
}

// Exporter writes statements in one format.
type Exporter struct {
	format   Format
	prefixes map[string]string
}

// NewExporter creates an exporter for format.
func NewExporter(format Format) (*Exporter, error) {
	if _, ok := FormatRegistry[format]; !ok {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return &Exporter{format: format, prefixes: defaultPrefixes()}, nil
}

// SetPrefix sets a namespace prefix for Turtle output.
func (e *Exporter) SetPrefix(prefix, iri string) {
	e.prefixes[prefix] = iri
}

// Export serializes triples to w.
func (e *Exporter) Export(w io.Writer, triples []triple.Triple) error {
	bw := bufio.NewWriter(w)
	switch e.format {
	case FormatTurtle:
		e.writeTurtle(bw, triples)
	default:
		writeNTriples(bw, triples)
	}
	return bw.Flush()
}

// ExportFile writes triples to dir/<source><ext> and returns the path.
func (e *Exporter) ExportFile(dir, source string, triples []triple.Triple) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create dump dir: %w", err)
	}
	path := filepath.Join(dir, source+FormatRegistry[e.format].Extension)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create dump: %w", err)
	}
	if err := e.Export(f, triples); err != nil {
		f.Close()
		return "", fmt.Errorf("write dump: %w", err)
	}
	return path, f.Close()
}

func writeNTriples(w *bufio.Writer, triples []triple.Triple) {
	for _, t := range triples {
		w.WriteString(t.String())
		w.WriteByte('\n')
	}
}

// writeTurtle groups statements by subject, subjects and predicates in
// sorted order.
func (e *Exporter) writeTurtle(w *bufio.Writer, triples []triple.Triple) {
	names := make([]string, 0, len(e.prefixes))
	for k := range e.prefixes {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, p := range names {
		fmt.Fprintf(w, "@prefix %s: <%s> .\n", p, e.prefixes[p])
	}
	w.WriteString("\n")

	bySubject := make(map[triple.Node][]triple.Triple)
	var subjects []triple.Node
	for _, t := range triples {
		if _, ok := bySubject[t.Subject]; !ok {
			subjects = append(subjects, t.Subject)
		}
		bySubject[t.Subject] = append(bySubject[t.Subject], t)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].String() < subjects[j].String() })

	for _, s := range subjects {
		group := bySubject[s]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Predicate.Value != group[j].Predicate.Value {
				return group[i].Predicate.Value < group[j].Predicate.Value
			}
			return group[i].Object.String() < group[j].Object.String()
		})

		w.WriteString(e.term(s))
		w.WriteString("\n")
		for i, t := range group {
			pred := e.term(t.Predicate)
			if t.Predicate.Value == obo.RDFType {
				pred = "a"
			}
			terminator := " ;"
			if i == len(group)-1 {
				terminator = " ."
			}
			fmt.Fprintf(w, "    %s %s%s\n", pred, e.term(t.Object), terminator)
		}
		w.WriteString("\n")
	}
}

// term renders a node, compacting named nodes to prefixed names where the
// local part allows it.
func (e *Exporter) term(n triple.Node) string {
	if !n.IsNamed() {
		return n.String()
	}
	best := ""
	for p, ns := range e.prefixes {
		if !strings.HasPrefix(n.Value, ns) {
			continue
		}
		local := strings.TrimPrefix(n.Value, ns)
		if !localName.MatchString(local) {
			continue
		}
		candidate := p + ":" + local
		if best == "" || len(candidate) < len(best) || (len(candidate) == len(best) && candidate < best) {
			best = candidate
		}
	}
	if best != "" {
		return best
	}
	return n.String()
}
