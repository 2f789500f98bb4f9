// Package report writes the side-channel files of a run: diverted
// deprecated terms, the normalization mappings applied to edge attributes,
// and a Markdown catalog of the loaded ontologies.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/c360studio/ontokn/processor/assembler"
)

// File names written by a Writer.
const (
	DeprecatedFile  = "deprecated_terms.txt"
	EdgeSourcesFile = "edge_sources.txt"
	EdgeLabelsFile  = "edge_labels.txt"
	CatalogFile     = "catalog.md"
)

// Writer writes report files into one directory.
type Writer struct {
	dir     string
	catalog *Catalog
}

// NewWriter creates a writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, catalog: NewCatalog()}
}

// Deprecated writes one term per line, sorted and without repeats.
func (w *Writer) Deprecated(terms []string) (string, error) {
	uniq := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		uniq[t] = struct{}{}
	}
	lines := make([]string, 0, len(uniq))
	for t := range uniq {
		lines = append(lines, t)
	}
	sort.Strings(lines)
	return w.writeLines(DeprecatedFile, lines)
}

// EdgeSources writes the source token mappings.
func (w *Writer) EdgeSources(m []assembler.Mapping) (string, error) {
	return w.writeLines(EdgeSourcesFile, mappingLines(m))
}

// EdgeLabels writes the relation label mappings.
func (w *Writer) EdgeLabels(m []assembler.Mapping) (string, error) {
	return w.writeLines(EdgeLabelsFile, mappingLines(m))
}

// Catalog renders the ontology catalog.
func (w *Writer) Catalog(entries []CatalogEntry) (string, error) {
	text, err := w.catalog.Render(entries)
	if err != nil {
		return "", err
	}
	path, err := w.path(CatalogFile)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", CatalogFile, err)
	}
	return path, nil
}

func mappingLines(m []assembler.Mapping) []string {
	sorted := append([]assembler.Mapping(nil), m...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Original < sorted[j].Original })

	lines := make([]string, len(sorted))
	for i, mp := range sorted {
		lines[i] = mp.Original + ": " + mp.Normalized
	}
	return lines
}

func (w *Writer) path(name string) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return filepath.Join(w.dir, name), nil
}

func (w *Writer) writeLines(name string, lines []string) (string, error) {
	path, err := w.path(name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	bw := bufio.NewWriter(f)
	for _, l := range lines {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, f.Close()
}
