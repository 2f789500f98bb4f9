package report

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/c360studio/ontokn/metadata"
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// CatalogEntry is one ontology document of a run.
type CatalogEntry struct {
	Descriptor metadata.Descriptor
	// Statements is the number of distinct statements decoded.
	Statements int
	// Flattened counts the statements consumed by blank-node flattening.
	Flattened int
	// Emitted counts the statements produced by flattening.
	Emitted int
	// Unmatched counts the blank-node groups left as they were.
	Unmatched int
	// Assembled counts the named/named statements folded into the graph.
	Assembled int
}

// Catalog renders catalog entries as Markdown.
type Catalog struct {
	converter *md.Converter
}

// NewCatalog creates a catalog renderer.
func NewCatalog() *Catalog {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Catalog{converter: converter}
}

// Render returns the catalog document. Descriptions may carry HTML markup,
// which is converted to Markdown.
func (c *Catalog) Render(entries []CatalogEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Ontology catalog\n\n")
	sb.WriteString("| Source | Title | Version | Statements | Flattened | Unmatched |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %d | %d |\n",
			e.Descriptor.Source, cell(e.Descriptor.Title), e.Descriptor.Version(),
			e.Statements, e.Flattened, e.Unmatched)
	}

	for _, e := range entries {
		d := e.Descriptor
		title := d.Title
		if title == "" {
			title = d.Source
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", title)
		writeField(&sb, "Source", d.Source)
		writeField(&sb, "PURL", d.PURL)
		writeField(&sb, "Version IRI", d.VersionIRI)
		writeField(&sb, "Version", d.Version())
		writeField(&sb, "Root", d.Root)
		fmt.Fprintf(&sb, "- **Statements:** %d decoded, %d flattened into %d, %d assembled\n",
			e.Statements, e.Flattened, e.Emitted, e.Assembled)

		if d.Description != "" {
			desc, err := c.converter.ConvertString(d.Description)
			if err != nil {
				return "", fmt.Errorf("convert description of %s: %w", d.Source, err)
			}
			sb.WriteString("\n")
			sb.WriteString(strings.TrimSpace(excessiveLinesRe.ReplaceAllString(desc, "\n\n")))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func writeField(sb *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(sb, "- **%s:** %s\n", name, value)
	}
}

// cell escapes a value for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
