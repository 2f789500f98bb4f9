package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontokn/config"
	"github.com/c360studio/ontokn/graph"
	"github.com/c360studio/ontokn/pipeline"
	"github.com/c360studio/ontokn/report"
	"github.com/c360studio/ontokn/source"
	"github.com/c360studio/ontokn/storage"
	"github.com/c360studio/ontokn/triple"
	"github.com/c360studio/ontokn/vocabulary/obo"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func term(id string) triple.Node { return triple.Named(obo.OBO + id) }

func writeNT(t *testing.T, path string, triples ...triple.Triple) {
	t.Helper()
	lines := make([]string, len(triples))
	for i, tr := range triples {
		lines[i] = tr.String()
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

// fixture writes a relations document, a cell ontology with one
// restriction and one obsolete term, and an unreadable document.
func fixture(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	label := triple.Named(obo.RDFSLabel)
	sub := triple.Named(obo.RDFS + obo.SubClassOf)
	r := triple.Blank("r1")
	header := triple.Named(obo.OBO + "cl.owl")

	writeNT(t, filepath.Join(dir, "ro.nt"),
		triple.New(term("RO_0002202"), label, triple.Literal("develops from")),
	)
	writeNT(t, filepath.Join(dir, "cl.nt"),
		triple.New(header, triple.Named(obo.RDFType), triple.Named(obo.OWLOntology)),
		triple.New(header, triple.Named(obo.DCTitle), triple.Literal("Cell Ontology")),
		triple.New(term("CL_1"), label, triple.Literal("cell")),
		triple.New(term("CL_1"), sub, r),
		triple.New(r, triple.Named(obo.RDFType), triple.Named(obo.OWL+obo.Restriction)),
		triple.New(r, triple.Named(obo.OWL+obo.OnProperty), term("RO_0002202")),
		triple.New(r, triple.Named(obo.OWL+obo.SomeValuesFrom), term("CL_2")),
		triple.New(term("CL_2"), label, triple.Literal("obsolete precursor")),
		triple.New(term("CL_1"), sub, term("GO_3")),
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.nt"), []byte("this is not a statement\n"), 0644))

	out := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Documents.Dir = dir
	cfg.Graph.Backend = config.BackendMemory
	cfg.Graph.Database = "kn"
	cfg.Graph.Name = "ontologies"
	cfg.Processing.Workers = 2
	cfg.Processing.Shards = 2
	cfg.Output.Dir = out
	return cfg, out
}

type recordingStream struct {
	subjects []string
}

func (r *recordingStream) PublishToStream(_ context.Context, subject string, _ []byte) error {
	r.subjects = append(r.subjects, subject)
	return nil
}

func TestRunBuildsGraph(t *testing.T) {
	cfg, out := fixture(t)
	client := storage.NewMemoryClient(discard)

	sum, err := pipeline.New(cfg, client, discard, pipeline.WithRunID("run-1")).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", sum.RunID)
	require.Len(t, sum.Documents, 3)
	assert.Equal(t, []string{"broken", "cl", "ro"}, []string{
		sum.Documents[0].Source, sum.Documents[1].Source, sum.Documents[2].Source,
	})

	failed := sum.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "broken", failed[0].Source)

	cl := sum.Documents[1]
	assert.True(t, cl.Assembled)
	assert.Equal(t, 1, cl.Flatten.Restrictions)
	assert.Equal(t, "Cell Ontology", cl.Descriptor.Title)
	assert.False(t, sum.Documents[2].Assembled, "relations document is not assembled by default")

	assert.Equal(t, 3, sum.Vertices)
	assert.Equal(t, []string{"CL_2"}, sum.Load.Deprecated)
	assert.Equal(t, 2, sum.Load.VerticesInserted)
	assert.Equal(t, 1, sum.Load.EdgesInserted)
	assert.Equal(t, 1, sum.Load.EdgesDangling)

	db, ok := client.MemoryDatabase("kn")
	require.True(t, ok)
	mg, ok := db.MemoryGraph("ontologies")
	require.True(t, ok)

	edge, ok := mg.Edge("CL-GO", "1-3")
	require.True(t, ok)
	assert.Equal(t, []string{"SUB_CLASS_OF"}, edge["Label"])
	assert.Equal(t, []string{"CL"}, edge["Source"])

	_, ok = mg.Edge("CL-CL", "1-2")
	assert.False(t, ok, "edge to a deprecated term is dangling")

	deprecated, err := os.ReadFile(filepath.Join(out, report.DeprecatedFile))
	require.NoError(t, err)
	assert.Equal(t, "CL_2\n", string(deprecated))

	labels, err := os.ReadFile(filepath.Join(out, report.EdgeLabelsFile))
	require.NoError(t, err)
	assert.Contains(t, string(labels), "develops from: DEVELOPS_FROM")

	catalog, err := os.ReadFile(filepath.Join(out, report.CatalogFile))
	require.NoError(t, err)
	assert.Contains(t, string(catalog), "Cell Ontology")
	assert.Len(t, sum.Reports, 4)
}

func TestRunWritesDumpAndMetrics(t *testing.T) {
	cfg, out := fixture(t)
	cfg.Output.DumpDir = filepath.Join(out, "dump")
	cfg.Output.DumpFormat = config.DumpTurtle
	cfg.Metrics.Textfile = filepath.Join(out, "ontokn.prom")

	sum, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard).Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)

	assert.ElementsMatch(t, []string{
		filepath.Join(cfg.Output.DumpDir, "cl.ttl"),
		filepath.Join(cfg.Output.DumpDir, "ro.ttl"),
	}, sum.Dumps)

	dump, err := os.ReadFile(filepath.Join(cfg.Output.DumpDir, "cl.ttl"))
	require.NoError(t, err)
	assert.Contains(t, string(dump), "obo:RO_0002202 obo:CL_2")

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ontokn_documents_total")
	assert.Contains(t, string(prom), `run_id="`+sum.RunID+`"`)
	assert.Contains(t, string(prom), "ontokn_last_success_timestamp_seconds")
}

func TestRunDumpsAxiomTargetOnce(t *testing.T) {
	cfg, out := fixture(t)
	sub := triple.Named(obo.RDFS + obo.SubClassOf)
	a := triple.Blank("a1")
	writeNT(t, filepath.Join(cfg.Documents.Dir, "cl.nt"),
		triple.New(term("CL_1"), sub, term("GO_3")),
		triple.New(a, triple.Named(obo.RDFType), triple.Named(obo.OWL+obo.Axiom)),
		triple.New(a, triple.Named(obo.OWL+obo.AnnotatedSource), term("CL_1")),
		triple.New(a, triple.Named(obo.OWL+obo.AnnotatedProperty), sub),
		triple.New(a, triple.Named(obo.OWL+obo.AnnotatedTarget), term("GO_3")),
		triple.New(a, triple.Named(obo.OBOInOwl+"source"), triple.Literal("PMID:1")),
	)
	cfg.Output.DumpDir = filepath.Join(out, "dump")

	_, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard).Run(context.Background())
	require.NoError(t, err)

	dump, err := os.ReadFile(filepath.Join(cfg.Output.DumpDir, "cl.nt"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(dump), "<"+obo.OBO+"GO_3>"))
	assert.Contains(t, string(dump), "GO_3 (source: PMID:1)")
}

func TestRunPublishesCatalog(t *testing.T) {
	cfg, _ := fixture(t)
	stream := &recordingStream{}
	pub := graph.NewPublisher(stream, "catalog.subject", discard)

	_, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard, pipeline.WithPublisher(pub)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"catalog.subject", "catalog.subject"}, stream.subjects)
}

func TestRunRequiresRelationsDocument(t *testing.T) {
	cfg, _ := fixture(t)
	cfg.Documents.Relations = "missing"

	_, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard).Run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrRelationsMissing)
}

func TestRunRequiresDocuments(t *testing.T) {
	cfg, _ := fixture(t)
	cfg.Documents.Dir = t.TempDir()

	_, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard).Run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNoDocuments)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg, _ := fixture(t)
	cfg.Vocabularies.Allow = nil

	_, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard).Run(context.Background())
	assert.Error(t, err)
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg, _ := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.New(cfg, storage.NewMemoryClient(discard), discard).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Graph.Backend = config.BackendMemory

	c, err := pipeline.OpenClient(context.Background(), cfg, nil, discard)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryClient{}, c)

	cfg.Graph.Backend = "sqlite"
	_, err = pipeline.OpenClient(context.Background(), cfg, nil, discard)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestWatchRebuildsPerBatch(t *testing.T) {
	batches := make(chan source.Batch, 3)
	batches <- source.Batch{Paths: []string{"cl.owl"}}
	batches <- source.Batch{Paths: []string{"go.owl"}}
	batches <- source.Batch{Paths: []string{"ro.owl"}}
	close(batches)

	calls := 0
	err := pipeline.Watch(context.Background(), batches, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("store unavailable")
		}
		return nil
	}, discard)

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "a failed rebuild does not stop the loop")
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.Watch(ctx, make(chan source.Batch), func(context.Context) error {
		t.Fatal("unexpected rebuild")
		return nil
	}, discard)
	assert.ErrorIs(t, err, context.Canceled)
}
