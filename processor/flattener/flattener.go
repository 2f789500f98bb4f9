// Package flattener recovers the single relation encoded by OWL Axiom and
// Restriction blank-node structures and rewrites it as ordinary named/named
// statements.
//
// A group is first planned (which statements it consumes, which it emits)
// and then applied to the TripleTypeSets in one step, so the conservation
// invariant is checked once per group rather than per statement.
package flattener

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/c360studio/ontokn/processor/classifier"
	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
)

// Pattern names a recognized anonymous structure.
type Pattern string

const (
	PatternNone        Pattern = ""
	PatternAxiom       Pattern = "axiom"
	PatternRestriction Pattern = "restriction"
)

// Labeler turns an annotation predicate into the label used in combined
// literals.
type Labeler interface {
	Label(p triple.Node) (string, error)
}

// Unmatched describes a group left in place because it matched no pattern,
// or matched one but lacked a required statement.
type Unmatched struct {
	Key        classifier.BlankKey
	Pattern    Pattern
	Signature  string
	Statements int
}

// Result summarizes one Flatten call.
type Result struct {
	Axioms       int
	Restrictions int
	Emitted      int
	Consumed     int
	Linking      int
	Anomalies    int
	Unmatched    []Unmatched
}

// Flattener rewrites anonymous groups of a document.
type Flattener struct {
	labeler Labeler
	logger  *slog.Logger
}

// New creates a flattener.
func New(labeler Labeler, logger *slog.Logger) *Flattener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flattener{labeler: labeler, logger: logger}
}

// plan is the computed effect of flattening one group.
type plan struct {
	pattern  Pattern
	consumed []triple.Triple
	emitted  []triple.Triple
	// missing is set when the pattern was recognized but a required
	// statement was absent or repeated.
	missing string
}

// Flatten canonicalizes the anonymous groups of sets and flattens every
// Axiom and Restriction group in place.
func (f *Flattener) Flatten(sets *classifier.TripleTypeSets) Result {
	var res Result

	sets.Canonicalize()
	f.check(sets, "canonicalize")

	flattened := make(map[classifier.BlankKey]struct{})
	for _, key := range sets.SubjectKeys() {
		group := sets.BlankBySubject[key]
		p, anomalies := f.planGroup(group)
		res.Anomalies += anomalies

		if p.pattern == PatternNone || p.missing != "" {
			u := Unmatched{
				Key:        key,
				Pattern:    p.pattern,
				Signature:  signature(group),
				Statements: len(group),
			}
			res.Unmatched = append(res.Unmatched, u)
			f.logger.Warn("Anonymous group left in place",
				"document", sets.Document,
				"key", key.String(),
				"pattern", string(p.pattern),
				"missing", p.missing,
				"signature", u.Signature)
			continue
		}

		sets.Apply(key, p.consumed, p.emitted)
		f.check(sets, string(p.pattern))

		flattened[key] = struct{}{}
		res.Emitted += len(p.emitted)
		res.Consumed += len(p.consumed)
		switch p.pattern {
		case PatternAxiom:
			res.Axioms++
		case PatternRestriction:
			res.Restrictions++
		}
	}

	res.Linking = sets.MoveLinking(flattened)
	f.check(sets, "linking")

	if len(res.Unmatched) > 0 {
		f.logger.Info("Anonymous groups matched no pattern",
			"document", sets.Document,
			"groups", len(res.Unmatched))
	}

	return res
}

func (f *Flattener) check(sets *classifier.TripleTypeSets, stage string) {
	if err := sets.Verify(stage); err != nil {
		f.logger.Warn("Triple count invariant violated", "document", sets.Document, "error", err)
	}
}

// namedStatement is a group statement with its decomposed predicate name.
type namedStatement struct {
	t    triple.Triple
	name string
}

// planGroup decides which pattern applies to a group and computes its plan.
// Statements whose predicate cannot be decomposed are anomalies: they are
// skipped and stay in the group.
func (f *Flattener) planGroup(group []triple.Triple) (plan, int) {
	stmts := make([]namedStatement, 0, len(group))
	anomalies := 0
	for _, t := range group {
		name, ok := t.Predicate.LocalName()
		if !ok {
			anomalies++
			f.logger.Warn("Skipping statement with undecomposable predicate", "statement", t.String())
			continue
		}
		stmts = append(stmts, namedStatement{t: t, name: name})
	}

	switch detect(stmts) {
	case PatternAxiom:
		return f.planAxiom(stmts), anomalies
	case PatternRestriction:
		return planRestriction(stmts), anomalies
	default:
		return plan{}, anomalies
	}
}

// detect looks for a type statement naming an Axiom or Restriction. Axiom
// wins when both are present.
func detect(stmts []namedStatement) Pattern {
	restriction := false
	for _, s := range stmts {
		if s.name != obo.Type || !s.t.Object.IsNamed() {
			continue
		}
		switch {
		case strings.HasSuffix(s.t.Object.Value, obo.Axiom):
			return PatternAxiom
		case strings.HasSuffix(s.t.Object.Value, obo.Restriction):
			restriction = true
		}
	}
	if restriction {
		return PatternRestriction
	}
	return PatternNone
}

// nonBlankEnd returns whichever end of t is not blank.
func nonBlankEnd(t triple.Triple) triple.Node {
	if t.Subject.IsBlank() {
		return t.Object
	}
	return t.Subject
}

// pick returns the single statement named name, or false when there is none
// or more than one.
func pick(stmts []namedStatement, name string) (triple.Triple, bool) {
	var found triple.Triple
	n := 0
	for _, s := range stmts {
		if s.name == name {
			found = s.t
			n++
		}
	}
	return found, n == 1
}

func typeStatements(stmts []namedStatement) []triple.Triple {
	var out []triple.Triple
	for _, s := range stmts {
		if s.name == obo.Type {
			out = append(out, s.t)
		}
	}
	return out
}

func planRestriction(stmts []namedStatement) plan {
	p := plan{pattern: PatternRestriction}

	sub, ok := pick(stmts, obo.SubClassOf)
	if !ok {
		p.missing = obo.SubClassOf
		return p
	}
	prop, ok := pick(stmts, obo.OnProperty)
	if !ok || !prop.Object.IsNamed() {
		p.missing = obo.OnProperty
		return p
	}
	some, ok := pick(stmts, obo.SomeValuesFrom)
	if !ok {
		p.missing = obo.SomeValuesFrom
		return p
	}

	s, o := nonBlankEnd(sub), nonBlankEnd(some)
	if s.IsBlank() || o.IsBlank() {
		p.missing = "named endpoint"
		return p
	}

	p.consumed = append([]triple.Triple{sub, prop, some}, typeStatements(stmts)...)
	p.emitted = []triple.Triple{triple.New(s, prop.Object, o)}
	return p
}

func (f *Flattener) planAxiom(stmts []namedStatement) plan {
	p := plan{pattern: PatternAxiom}

	src, ok := pick(stmts, obo.AnnotatedSource)
	if !ok {
		p.missing = obo.AnnotatedSource
		return p
	}
	prop, ok := pick(stmts, obo.AnnotatedProperty)
	if !ok || !prop.Object.IsNamed() {
		p.missing = obo.AnnotatedProperty
		return p
	}
	target, ok := pick(stmts, obo.AnnotatedTarget)
	if !ok {
		p.missing = obo.AnnotatedTarget
		return p
	}

	s, pred, o := nonBlankEnd(src), prop.Object, nonBlankEnd(target)
	if s.IsBlank() || o.IsBlank() {
		p.missing = "named endpoint"
		return p
	}
	base, ok := nodeText(o)
	if !ok {
		p.missing = obo.AnnotatedTarget
		return p
	}

	p.consumed = append([]triple.Triple{src, prop, target}, typeStatements(stmts)...)
	p.emitted = []triple.Triple{triple.New(s, pred, o)}

	for _, st := range stmts {
		switch st.name {
		case obo.Type, obo.AnnotatedSource, obo.AnnotatedProperty, obo.AnnotatedTarget:
			continue
		}
		value, ok := nodeText(st.t.Object)
		if !ok {
			continue
		}
		label, err := f.labeler.Label(st.t.Predicate)
		if err != nil {
			f.logger.Warn("Skipping axiom annotation", "statement", st.t.String(), "error", err)
			continue
		}
		p.consumed = append(p.consumed, st.t)
		p.emitted = append(p.emitted, triple.New(s, pred, triple.Literal(Combine(base, label, value))))
	}

	return p
}

// nodeText is the textual value of an annotation or target: a literal's
// lexical form or a named node's local name.
func nodeText(n triple.Node) (string, bool) {
	switch {
	case n.IsLiteral():
		return n.Value, true
	case n.IsNamed():
		return n.LocalName()
	default:
		return "", false
	}
}

// Combine builds the literal that records an axiom annotation alongside the
// annotated value: "<base> (<label>: <value>)".
func Combine(base, label, value string) string {
	return fmt.Sprintf("%s (%s: %s)", base, label, value)
}

// signature summarizes a group by its predicate names and type objects,
// sorted, for logging.
func signature(group []triple.Triple) string {
	parts := make([]string, 0, len(group))
	for _, t := range group {
		name, ok := t.Predicate.LocalName()
		if !ok {
			name = t.Predicate.Value
		}
		if name == obo.Type {
			if typ, ok := t.Object.LocalName(); ok {
				name += "=" + typ
			}
		}
		parts = append(parts, name)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
