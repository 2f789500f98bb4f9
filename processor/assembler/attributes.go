package assembler

import (
	"regexp"
	"sort"
)

// qualified matches a value carrying a trailing parenthetical qualifier,
// e.g. "macrophage (hasDbXref: PMID:1)".
var qualified = regexp.MustCompile(`^(.*) (\(.*\))$`)

// strip removes a trailing " (...)" qualifier.
func strip(v string) string {
	if m := qualified.FindStringSubmatch(v); m != nil {
		return m[1]
	}
	return v
}

// AttributeSet is a multi-valued vertex attribute. A qualified value
// supersedes the bare value it qualifies.
type AttributeSet struct {
	values map[string]struct{}
}

// NewAttributeSet returns an empty set.
func NewAttributeSet() *AttributeSet {
	return &AttributeSet{values: make(map[string]struct{})}
}

// Add merges one value into the set:
//   - a bare value already present, or present in qualified form, is
//     not added again;
//   - a qualified value replaces its bare form.
func (a *AttributeSet) Add(v string) {
	stripped := make(map[string]struct{}, len(a.values))
	for existing := range a.values {
		stripped[strip(existing)] = struct{}{}
	}

	if m := qualified.FindStringSubmatch(v); m != nil {
		delete(a.values, m[1])
	}
	if _, dup := stripped[v]; dup {
		return
	}
	a.values[v] = struct{}{}
}

// Len returns the number of values.
func (a *AttributeSet) Len() int { return len(a.values) }

// Values returns the values in sorted order.
func (a *AttributeSet) Values() []string {
	out := make([]string, 0, len(a.values))
	for v := range a.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Value returns the stored form of the attribute: a string when the set
// has one member, otherwise the sorted values.
func (a *AttributeSet) Value() any {
	vals := a.Values()
	if len(vals) == 1 {
		return vals[0]
	}
	return vals
}
