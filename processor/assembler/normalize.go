package assembler

import (
	"sort"
	"strings"
)

// Normalizer maps source tokens or relation labels to the canonical names
// used for edge attributes. Explicit entries win; anything else is
// upper-cased with spaces replaced by underscores.
//
// A Normalizer remembers every mapping it produced for the side-channel
// reports. It is not safe for concurrent use.
type Normalizer struct {
	table map[string]string
	seen  map[string]string
}

// NewNormalizer creates a normalizer from an explicit table.
func NewNormalizer(table map[string]string) *Normalizer {
	t := make(map[string]string, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &Normalizer{table: t, seen: make(map[string]string)}
}

// Normalize returns the canonical form of s.
func (n *Normalizer) Normalize(s string) string {
	out, ok := n.table[s]
	if !ok {
		out = strings.ReplaceAll(strings.ToUpper(s), " ", "_")
	}
	n.seen[s] = out
	return out
}

// Mapping is one original → normalized pair.
type Mapping struct {
	Original   string
	Normalized string
}

// Seen returns every mapping produced so far, sorted by original.
func (n *Normalizer) Seen() []Mapping {
	out := make([]Mapping, 0, len(n.seen))
	for k, v := range n.seen {
		out = append(out, Mapping{Original: k, Normalized: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Original < out[j].Original })
	return out
}
