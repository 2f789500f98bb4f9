package triple

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeLocalName(t *testing.T) {
	tests := []struct {
		name   string
		node   Node
		want   string
		wantOK bool
	}{
		{"fragment", Named("http://www.w3.org/2000/01/rdf-schema#subClassOf"), "subClassOf", true},
		{"path segment", Named("http://purl.obolibrary.org/obo/CL_0000235"), "CL_0000235", true},
		{"trailing slash", Named("http://example.org/terms/"), "terms", true},
		{"blank", Blank("b0"), "", false},
		{"literal", Literal("x"), "", false},
		{"no path", Named("http://example.org"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.node.LocalName()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeEquality(t *testing.T) {
	assert.Equal(t, Named("http://a"), Named("http://a"))
	assert.NotEqual(t, Named("x"), Literal("x"))
	assert.NotEqual(t, Blank("x"), Literal("x"))

	m := map[Triple]int{New(Named("s"), Named("p"), Literal("o")): 1}
	assert.Equal(t, 1, m[New(Named("s"), Named("p"), Literal("o"))])
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "<http://a>", Named("http://a").String())
	assert.Equal(t, "_:b1", Blank("b1").String())
	assert.Equal(t, `"say \"hi\""`, Literal(`say "hi"`).String())

	lang := Literal("cell")
	lang.Lang = "en"
	assert.Equal(t, `"cell"@en`, lang.String())
}

func TestSourceToken(t *testing.T) {
	assert.Equal(t, "mondo-simple", SourceToken("/data/obo/mondo-simple.owl"))
	assert.Equal(t, "cl", SourceToken("cl.owl.gz"))
	assert.Equal(t, "ro", SourceToken("ro.nt"))
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("go.owl.gz")
	require.NoError(t, err)
	assert.Equal(t, rdf.RDFXML, f)

	f, err = FormatFor("x.nt")
	require.NoError(t, err)
	assert.Equal(t, rdf.NTriples, f)

	_, err = FormatFor("notes.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

const sampleNT = `<http://purl.obolibrary.org/obo/CL_0000235> <http://www.w3.org/2000/01/rdf-schema#label> "macrophage"@en .
<http://purl.obolibrary.org/obo/CL_0000235> <http://www.w3.org/2000/01/rdf-schema#subClassOf> _:b0 .
_:b0 <http://www.w3.org/2002/07/owl#onProperty> <http://purl.obolibrary.org/obo/RO_0002202> .
<http://purl.obolibrary.org/obo/CL_0000235> <http://www.w3.org/2000/01/rdf-schema#label> "macrophage"@en .
`

func TestDecodeNTriples(t *testing.T) {
	triples, err := Decode(strings.NewReader(sampleNT), rdf.NTriples)
	require.NoError(t, err)
	require.Len(t, triples, 3, "repeated statement should be dropped")

	assert.True(t, triples[0].Subject.IsNamed())
	assert.Equal(t, "macrophage", triples[0].Object.Value)
	assert.Equal(t, "en", triples[0].Object.Lang)
	assert.True(t, triples[1].Object.IsBlank())
	assert.Equal(t, triples[1].Object, triples[2].Subject)
}

func TestDecodeRDFXML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <rdf:Description rdf:about="http://purl.obolibrary.org/obo/CL_0000235">
    <rdfs:label>macrophage</rdfs:label>
    <rdfs:subClassOf rdf:resource="http://purl.obolibrary.org/obo/CL_0000113"/>
  </rdf:Description>
</rdf:RDF>`

	triples, err := Decode(strings.NewReader(doc), rdf.RDFXML)
	require.NoError(t, err)
	require.Len(t, triples, 2)

	var sawLabel, sawParent bool
	for _, tr := range triples {
		assert.Equal(t, Named("http://purl.obolibrary.org/obo/CL_0000235"), tr.Subject)
		if tr.Object.IsLiteral() && tr.Object.Value == "macrophage" {
			sawLabel = true
		}
		if tr.Object == Named("http://purl.obolibrary.org/obo/CL_0000113") {
			sawParent = true
		}
	}
	assert.True(t, sawLabel)
	assert.True(t, sawParent)
}

func TestDecodeFileGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cl.nt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleNT))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	doc, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cl", doc.Source)
	assert.Len(t, doc.Triples, 3)
}
