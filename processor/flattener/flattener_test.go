package flattener

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/c360studio/ontokn/processor/classifier"
	"github.com/c360studio/ontokn/processor/resolver"
	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	subject  = triple.Named(obo.OBO + "CL_0000235")
	property = triple.Named(obo.OBO + "RO_0002202")
	object   = triple.Named(obo.OBO + "CL_0000113")
)

func named(s string) triple.Node { return triple.Named(s) }

func newFlattener(t *testing.T) *Flattener {
	t.Helper()
	ctx, err := resolver.NewContext([]string{"CL"}, resolver.Dictionary{"RO_0002202": "develops from"})
	require.NoError(t, err)
	return New(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func restrictionTriples(b string) []triple.Triple {
	r := triple.Blank(b)
	return []triple.Triple{
		triple.New(subject, named(obo.RDFS+"subClassOf"), r),
		triple.New(r, named(obo.RDF+"type"), named(obo.OWL+"Restriction")),
		triple.New(r, named(obo.OWL+"onProperty"), property),
		triple.New(r, named(obo.OWL+"someValuesFrom"), object),
	}
}

func axiomTriples(b string) []triple.Triple {
	a := triple.Blank(b)
	return []triple.Triple{
		triple.New(a, named(obo.RDF+"type"), named(obo.OWL+"Axiom")),
		triple.New(a, named(obo.OWL+"annotatedSource"), subject),
		triple.New(a, named(obo.OWL+"annotatedProperty"), named(obo.OBO+"IAO_0000115")),
		triple.New(a, named(obo.OWL+"annotatedTarget"), triple.Literal("T")),
		triple.New(a, named(obo.OBOInOwl+"hasDbXref"), triple.Literal("V")),
	}
}

func TestFlattenRestriction(t *testing.T) {
	f := newFlattener(t)
	sets := classifier.Classify("cl", restrictionTriples("r1"))

	res := f.Flatten(sets)

	assert.Equal(t, 1, res.Restrictions)
	assert.Contains(t, sets.NamedNamed, triple.New(subject, property, object))
	assert.Empty(t, sets.BlankBySubject)
	assert.Empty(t, sets.BlankByObject)
	assert.Len(t, sets.Flattened, 4)
	assert.Equal(t, 5, sets.Total)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenAxiomWithAnnotation(t *testing.T) {
	f := newFlattener(t)
	sets := classifier.Classify("cl", axiomTriples("a1"))

	res := f.Flatten(sets)

	pred := named(obo.OBO + "IAO_0000115")
	assert.Equal(t, 1, res.Axioms)
	assert.Contains(t, sets.NamedNamed, triple.New(subject, pred, triple.Literal("T")))
	assert.Contains(t, sets.NamedNamed, triple.New(subject, pred, triple.Literal("T (hasDbXref: V)")))
	assert.Empty(t, sets.BlankBySubject)
	assert.Equal(t, 2, res.Emitted)
	assert.Equal(t, 5, res.Consumed)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenAxiomNamedTarget(t *testing.T) {
	f := newFlattener(t)
	a := triple.Blank("a2")
	sets := classifier.Classify("cl", []triple.Triple{
		triple.New(a, named(obo.RDF+"type"), named(obo.OWL+"Axiom")),
		triple.New(a, named(obo.OWL+"annotatedSource"), subject),
		triple.New(a, named(obo.OWL+"annotatedProperty"), named(obo.RDFS+"subClassOf")),
		triple.New(a, named(obo.OWL+"annotatedTarget"), object),
		triple.New(a, named(obo.OBOInOwl+"source"), named(obo.OBO+"ECO_0000304")),
	})

	f.Flatten(sets)

	assert.Contains(t, sets.NamedNamed, triple.New(subject, named(obo.RDFS+"subClassOf"), object))
	assert.Contains(t, sets.NamedNamed,
		triple.New(subject, named(obo.RDFS+"subClassOf"), triple.Literal("CL_0000113 (source: ECO_0000304)")))
}

func TestAxiomCheckedBeforeRestriction(t *testing.T) {
	f := newFlattener(t)
	triples := axiomTriples("a1")
	triples = append(triples, triple.New(triple.Blank("a1"), named(obo.RDF+"type"), named(obo.OWL+"Restriction")))
	sets := classifier.Classify("cl", triples)

	res := f.Flatten(sets)

	assert.Equal(t, 1, res.Axioms)
	assert.Equal(t, 0, res.Restrictions)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenLeavesUnmatchedGroups(t *testing.T) {
	f := newFlattener(t)
	b := triple.Blank("c1")
	triples := []triple.Triple{
		triple.New(subject, named(obo.OWL+"equivalentClass"), b),
		triple.New(b, named(obo.RDF+"type"), named(obo.OWL+"Class")),
	}
	sets := classifier.Classify("cl", triples)

	res := f.Flatten(sets)

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, PatternNone, res.Unmatched[0].Pattern)
	assert.Equal(t, "equivalentClass,type=Class", res.Unmatched[0].Signature)
	assert.Len(t, sets.BlankBySubject[classifier.BlankKey{Document: "cl", Node: "c1"}], 2)
	assert.Empty(t, sets.Flattened)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenLogsUnmatchedSignature(t *testing.T) {
	var buf bytes.Buffer
	ctx, err := resolver.NewContext([]string{"CL"}, resolver.Dictionary{})
	require.NoError(t, err)
	f := New(ctx, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	b := triple.Blank("u1")
	sets := classifier.Classify("cl", []triple.Triple{
		triple.New(subject, named(obo.OWL+"equivalentClass"), b),
		triple.New(b, named(obo.RDF+"type"), named(obo.OWL+"Class")),
		triple.New(b, named(obo.OWL+"unionOf"), object),
	})

	f.Flatten(sets)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "Anonymous group left in place")
	assert.Contains(t, out, "document=cl")
	assert.Contains(t, out, "unionOf")
}

func TestFlattenIncompleteRestriction(t *testing.T) {
	f := newFlattener(t)
	triples := restrictionTriples("r1")[:3]
	sets := classifier.Classify("cl", triples)

	res := f.Flatten(sets)

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, PatternRestriction, res.Unmatched[0].Pattern)
	assert.Equal(t, 0, res.Restrictions)
	assert.Equal(t, 3, sets.Total)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenKeepsUnhandledStatements(t *testing.T) {
	f := newFlattener(t)
	triples := append(restrictionTriples("r1"),
		triple.New(triple.Blank("r1"), named(obo.RDFS+"comment"), triple.Literal("note")))
	sets := classifier.Classify("cl", triples)

	res := f.Flatten(sets)

	assert.Equal(t, 1, res.Restrictions)
	assert.Len(t, sets.BlankBySubject[classifier.BlankKey{Document: "cl", Node: "r1"}], 1)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenMovesLinkingStatements(t *testing.T) {
	f := newFlattener(t)
	triples := append(restrictionTriples("r1"),
		triple.New(triple.Blank("list"), named(obo.RDF+"first"), triple.Blank("r1")))
	sets := classifier.Classify("cl", triples)

	res := f.Flatten(sets)

	assert.Equal(t, 1, res.Linking)
	assert.Empty(t, sets.BlankBlank)
	assert.Len(t, sets.Linking, 1)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenCountsAnomalies(t *testing.T) {
	f := newFlattener(t)
	triples := append(restrictionTriples("r1"),
		triple.New(triple.Blank("r1"), named("http://example.org"), triple.Literal("x")))
	sets := classifier.Classify("cl", triples)

	res := f.Flatten(sets)

	assert.Equal(t, 1, res.Anomalies)
	assert.Equal(t, 1, res.Restrictions)
	assert.NoError(t, sets.Verify("test"))
}

func TestFlattenConservesTriples(t *testing.T) {
	f := newFlattener(t)
	var triples []triple.Triple
	triples = append(triples, restrictionTriples("r1")...)
	triples = append(triples, restrictionTriples("r2")...)
	triples = append(triples, axiomTriples("a1")...)
	triples = append(triples,
		triple.New(subject, named(obo.RDFS+"label"), triple.Literal("macrophage")),
		triple.New(triple.Blank("x"), named(obo.RDF+"rest"), triple.Blank("y")),
	)
	sets := classifier.Classify("cl", triples)
	input := len(triples)

	res := f.Flatten(sets)

	assert.Equal(t, input+res.Emitted, sets.Total)
	assert.Equal(t, sets.Total, sets.Size())
}

func TestCombine(t *testing.T) {
	assert.Equal(t, "T (hasDbXref: V)", Combine("T", "hasDbXref", "V"))
}
