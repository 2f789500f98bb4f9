package classifier

import (
	"testing"

	"github.com/c360studio/ontokn/triple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cl      = "http://purl.obolibrary.org/obo/CL_0000235"
	parent  = "http://purl.obolibrary.org/obo/CL_0000113"
	subCls  = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	label   = "http://www.w3.org/2000/01/rdf-schema#label"
	onProp  = "http://www.w3.org/2002/07/owl#onProperty"
	rdfRest = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
)

func sample() []triple.Triple {
	return []triple.Triple{
		triple.New(triple.Named(cl), triple.Named(label), triple.Literal("macrophage")),
		triple.New(triple.Named(cl), triple.Named(subCls), triple.Named(parent)),
		triple.New(triple.Named(cl), triple.Named(subCls), triple.Blank("r1")),
		triple.New(triple.Blank("r1"), triple.Named(onProp), triple.Named("http://purl.obolibrary.org/obo/RO_0002202")),
		triple.New(triple.Blank("l1"), triple.Named(rdfRest), triple.Blank("l2")),
	}
}

func TestClassifyBuckets(t *testing.T) {
	s := Classify("cl", sample())

	assert.Len(t, s.NamedNamed, 2)
	assert.Len(t, s.BlankBlank, 1)
	require.Contains(t, s.BlankBySubject, BlankKey{Document: "cl", Node: "r1"})
	require.Contains(t, s.BlankByObject, BlankKey{Document: "cl", Node: "r1"})
	assert.Equal(t, 5, s.Total)
	assert.NoError(t, s.Verify("classify"))
}

func TestClassifyConservesTriples(t *testing.T) {
	tests := []struct {
		name    string
		triples []triple.Triple
	}{
		{"empty", nil},
		{"sample", sample()},
		{"only blank", []triple.Triple{
			triple.New(triple.Blank("a"), triple.Named(rdfRest), triple.Blank("b")),
			triple.New(triple.Blank("b"), triple.Named(rdfRest), triple.Blank("c")),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Classify("doc", tt.triples)
			assert.Equal(t, len(tt.triples), s.Total)
			assert.Equal(t, len(tt.triples), s.Size())
			assert.NoError(t, s.Verify("classify"))
		})
	}
}

func TestCanonicalizeMergesObjectGroups(t *testing.T) {
	s := Classify("cl", sample())
	merged := s.Canonicalize()

	key := BlankKey{Document: "cl", Node: "r1"}
	assert.Equal(t, 1, merged)
	assert.NotContains(t, s.BlankByObject, key)
	assert.Len(t, s.BlankBySubject[key], 2)
	assert.NoError(t, s.Verify("canonicalize"))
}

func TestBlankKeysAreDocumentScoped(t *testing.T) {
	a := Classify("cl", sample())
	b := Classify("go", sample())

	for k := range a.BlankBySubject {
		_, clash := b.BlankBySubject[k]
		assert.False(t, clash, "key %s should not collide across documents", k)
	}
}

func TestApplyMovesConsumedTriples(t *testing.T) {
	s := Classify("cl", sample())
	s.Canonicalize()
	key := BlankKey{Document: "cl", Node: "r1"}

	consumed := s.BlankBySubject[key]
	emitted := []triple.Triple{
		triple.New(triple.Named(cl), triple.Named("http://purl.obolibrary.org/obo/RO_0002202"), triple.Named(parent)),
	}
	s.Apply(key, consumed, emitted)

	assert.NotContains(t, s.BlankBySubject, key)
	assert.Len(t, s.Flattened, 2)
	assert.Len(t, s.NamedNamed, 3)
	assert.Equal(t, 6, s.Total)
	assert.NoError(t, s.Verify("apply"))
}

func TestStatementsDropsRepeatedEmissions(t *testing.T) {
	s := Classify("cl", sample())
	s.Canonicalize()
	key := BlankKey{Document: "cl", Node: "r1"}

	direct := triple.New(triple.Named(cl), triple.Named(subCls), triple.Named(parent))
	s.Apply(key, s.BlankBySubject[key], []triple.Triple{direct})

	assert.Len(t, s.NamedNamed, 3)
	assert.NoError(t, s.Verify("apply"))
	assert.Equal(t, []triple.Triple{
		triple.New(triple.Named(cl), triple.Named(label), triple.Literal("macrophage")),
		direct,
	}, s.Statements())
}

func TestVerifyReportsMismatch(t *testing.T) {
	s := Classify("cl", sample())
	s.Total++

	err := s.Verify("tamper")
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, 5, inv.Size)
	assert.Equal(t, 6, inv.Total)
}

func TestMoveLinking(t *testing.T) {
	s := Classify("cl", sample())
	moved := s.MoveLinking(map[BlankKey]struct{}{{Document: "cl", Node: "l2"}: {}})

	assert.Equal(t, 1, moved)
	assert.Empty(t, s.BlankBlank)
	assert.Len(t, s.Linking, 1)
	assert.NoError(t, s.Verify("linking"))
}

func TestCount(t *testing.T) {
	c := Count(sample())
	assert.Equal(t, 1, c[[2]triple.Kind{triple.KindNamed, triple.KindLiteral}])
	assert.Equal(t, 1, c[[2]triple.Kind{triple.KindNamed, triple.KindNamed}])
	assert.Equal(t, 1, c[[2]triple.Kind{triple.KindBlank, triple.KindBlank}])
}
