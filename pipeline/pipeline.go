// Package pipeline runs one batch build: discover the ontology documents,
// clean each one concurrently, assemble the property graph in document
// order, load it, and write the side-channel outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/ontokn/config"
	"github.com/c360studio/ontokn/export"
	"github.com/c360studio/ontokn/graph"
	"github.com/c360studio/ontokn/metadata"
	"github.com/c360studio/ontokn/metrics"
	"github.com/c360studio/ontokn/processor/assembler"
	"github.com/c360studio/ontokn/processor/classifier"
	"github.com/c360studio/ontokn/processor/flattener"
	"github.com/c360studio/ontokn/processor/loader"
	"github.com/c360studio/ontokn/processor/resolver"
	"github.com/c360studio/ontokn/report"
	"github.com/c360studio/ontokn/source"
	"github.com/c360studio/ontokn/storage"
	"github.com/c360studio/ontokn/triple"
)

// Document is the per-document outcome of a run.
type Document struct {
	Source     string
	Path       string
	Descriptor metadata.Descriptor
	// Counts buckets the decoded statements by (subject kind, object kind).
	Counts  classifier.Counts
	Flatten flattener.Result
	// Statements is the number of distinct statements decoded.
	Statements int
	// Assembled is false for the relations document unless configured, and
	// for failed documents.
	Assembled bool
	// Err is set when the document could not be decoded or assembled. The
	// rest of the batch is unaffected.
	Err error

	sets *classifier.TripleTypeSets
}

// Summary is the outcome of a run.
type Summary struct {
	RunID     string
	Documents []*Document
	Graph     assembler.Stats
	Vertices  int
	Edges     int
	Load      *loader.Result
	Reports   []string
	Dumps     []string
	Duration  time.Duration
}

// Failed returns the documents that could not be processed.
func (s *Summary) Failed() []*Document {
	var out []*Document
	for _, d := range s.Documents {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPublisher publishes the ontology catalog after each load.
func WithPublisher(p *graph.Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(pl *Pipeline) { pl.runID = id }
}

// Pipeline is a configured batch build. A Pipeline runs once; watch mode
// builds a new one per rebuild.
type Pipeline struct {
	cfg       *config.Config
	client    storage.Client
	publisher *graph.Publisher
	runID     string
	logger    *slog.Logger
}

// New creates a pipeline writing to client.
func New(cfg *config.Config, client storage.Client, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{cfg: cfg, client: client}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = uuid.New().String()
	}
	p.logger = logger.With("run_id", p.runID)
	return p
}

// RunID returns the id labeling the run's logs, metrics and catalog.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes the build. Per-document failures are recorded in the
// summary; only configuration errors, cancellation and failures to prepare
// the target graph abort the run.
func (p *Pipeline) Run(ctx context.Context) (sum *Summary, err error) {
	started := time.Now()
	m := metrics.NewRun(p.runID)
	sum = &Summary{RunID: p.runID}

	defer func() {
		sum.Duration = time.Since(started)
		m.Finish(started, err == nil)
		p.exportMetrics(ctx, m)
	}()

	if err := p.cfg.Validate(); err != nil {
		return sum, fmt.Errorf("invalid config: %w", err)
	}

	paths, err := source.Discover(p.cfg.Documents.Dir, p.cfg.Documents.Include, p.cfg.Documents.Exclude)
	if err != nil {
		return sum, fmt.Errorf("discover documents: %w", err)
	}
	if len(paths) == 0 {
		return sum, fmt.Errorf("%w in %s", ErrNoDocuments, p.cfg.Documents.Dir)
	}
	p.logger.Info("Discovered ontology documents", "dir", p.cfg.Documents.Dir, "count", len(paths))

	relations, err := p.relations(paths)
	if err != nil {
		return sum, err
	}
	rctx, err := resolver.NewContext(p.cfg.Vocabularies.Allow, resolver.NewDictionary(relations.Triples))
	if err != nil {
		return sum, fmt.Errorf("build resolver context: %w", err)
	}

	docs, err := p.prepare(ctx, paths, relations, rctx)
	if err != nil {
		return sum, err
	}
	sum.Documents = docs

	g, err := p.assemble(ctx, docs, rctx)
	if err != nil {
		return sum, err
	}
	sum.Graph = g.Stats
	sum.Vertices = len(g.Vertices)
	sum.Edges = len(g.Edges)

	res, err := loader.New(p.client, loader.Config{
		Database: p.cfg.Graph.Database,
		Graph:    p.cfg.Graph.Name,
	}, p.logger).Load(ctx, g)
	if err != nil {
		return sum, fmt.Errorf("load graph: %w", err)
	}
	sum.Load = res

	entries := catalogEntries(docs)

	if sum.Reports, err = p.writeReports(g, res, entries); err != nil {
		return sum, err
	}
	if sum.Dumps, err = p.dump(docs); err != nil {
		return sum, err
	}

	record(m, docs, res)

	if p.publisher != nil && p.publisher.Enabled() {
		if err := p.publisher.PublishCatalog(ctx, p.runID, entries); err != nil {
			p.logger.Warn("Failed to publish ontology catalog", "error", err)
		}
	}

	p.logger.Info("Build complete",
		"documents", len(docs),
		"failed", len(sum.Failed()),
		"vertices", sum.Vertices,
		"edges", sum.Edges,
		"deprecated", len(res.Deprecated),
		"dangling", res.EdgesDangling,
		"duration", time.Since(started))
	return sum, nil
}

// relations decodes the relations document, which seeds the label
// dictionary. Its absence is fatal.
func (p *Pipeline) relations(paths []string) (*triple.Document, error) {
	for _, path := range paths {
		if triple.SourceToken(path) != p.cfg.Documents.Relations {
			continue
		}
		doc, err := triple.DecodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("read relations document: %w", err)
		}
		p.logger.Info("Loaded relations document", "path", path, "statements", len(doc.Triples))
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrRelationsMissing, p.cfg.Documents.Relations, p.cfg.Documents.Dir)
}

// prepare decodes, classifies and flattens every document on a bounded
// worker group. Documents are returned in path order.
func (p *Pipeline) prepare(ctx context.Context, paths []string, relations *triple.Document, rctx *resolver.Context) ([]*Document, error) {
	docs := make([]*Document, len(paths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.Processing.Workers)
	for i, path := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			var cached *triple.Document
			if path == relations.Path {
				cached = relations
			}
			docs[i] = p.prepareOne(path, cached, rctx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("prepare documents: %w", err)
	}
	return docs, nil
}

func (p *Pipeline) prepareOne(path string, doc *triple.Document, rctx *resolver.Context) *Document {
	d := &Document{Source: triple.SourceToken(path), Path: path}
	logger := p.logger.With("source", d.Source)

	if doc == nil {
		var err error
		if doc, err = triple.DecodeFile(path); err != nil {
			logger.Error("Failed to decode document", "path", path, "error", err)
			d.Err = err
			return d
		}
	}
	d.Statements = len(doc.Triples)
	d.Counts = classifier.Count(doc.Triples)
	d.Descriptor = metadata.Extract(doc)

	if err := rctx.CheckPredicates(doc.Triples); err != nil {
		logger.Error("Document cannot be assembled", "path", path, "error", err)
		d.Err = err
		return d
	}

	sets := classifier.Classify(d.Source, doc.Triples)
	d.Flatten = flattener.New(rctx, logger).Flatten(sets)
	d.sets = sets

	logger.Debug("Prepared document",
		"statements", d.Statements,
		"axioms", d.Flatten.Axioms,
		"restrictions", d.Flatten.Restrictions,
		"unmatched", len(d.Flatten.Unmatched),
		"named", len(sets.NamedNamed))
	return d
}

// assemble feeds the cleaned documents to the assembler in document order.
func (p *Pipeline) assemble(ctx context.Context, docs []*Document, rctx *resolver.Context) (*assembler.Graph, error) {
	a := assembler.New(rctx, assembler.Config{
		Shards:  p.cfg.Processing.Shards,
		Sources: p.cfg.Normalization.Sources,
		Labels:  p.cfg.Normalization.Labels,
	}, p.logger)

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("assemble graph: %w", err)
		}
		if d.Err != nil {
			continue
		}
		if d.Source == p.cfg.Documents.Relations && !p.cfg.Documents.AssembleRelations {
			continue
		}
		if err := a.AddDocument(d.Source, d.sets.NamedNamed); err != nil {
			if errors.Is(err, assembler.ErrClosed) {
				a.Close()
				return nil, fmt.Errorf("assemble graph: %w", err)
			}
			p.logger.Error("Failed to assemble document", "source", d.Source, "error", err)
			d.Err = err
			continue
		}
		d.Assembled = true
	}

	g := a.Close()
	p.logger.Info("Assembled graph",
		"vertices", len(g.Vertices),
		"edges", len(g.Edges),
		"invalid_subjects", g.Stats.InvalidSubjects,
		"label_failures", g.Stats.LabelFailures)
	return g, nil
}

func catalogEntries(docs []*Document) []report.CatalogEntry {
	var entries []report.CatalogEntry
	for _, d := range docs {
		if d.Err != nil {
			continue
		}
		e := report.CatalogEntry{
			Descriptor: d.Descriptor,
			Statements: d.Statements,
			Flattened:  len(d.sets.Flattened),
			Emitted:    d.Flatten.Emitted,
			Unmatched:  len(d.Flatten.Unmatched),
		}
		if d.Assembled {
			e.Assembled = len(d.sets.NamedNamed)
		}
		entries = append(entries, e)
	}
	return entries
}

func (p *Pipeline) writeReports(g *assembler.Graph, res *loader.Result, entries []report.CatalogEntry) ([]string, error) {
	w := report.NewWriter(p.cfg.Output.Dir)
	writes := []func() (string, error){
		func() (string, error) { return w.Deprecated(res.Deprecated) },
		func() (string, error) { return w.EdgeSources(g.SourceMappings) },
		func() (string, error) { return w.EdgeLabels(g.LabelMappings) },
		func() (string, error) { return w.Catalog(entries) },
	}

	var paths []string
	for _, write := range writes {
		path, err := write()
		if err != nil {
			return paths, fmt.Errorf("write reports: %w", err)
		}
		paths = append(paths, path)
	}
	p.logger.Info("Wrote reports", "dir", p.cfg.Output.Dir, "files", len(paths))
	return paths, nil
}

// dump writes the cleaned named/named statements of every assembled
// document when a dump directory is configured.
func (p *Pipeline) dump(docs []*Document) ([]string, error) {
	if p.cfg.Output.DumpDir == "" {
		return nil, nil
	}
	format, err := export.ParseFormat(p.cfg.Output.DumpFormat)
	if err != nil {
		return nil, fmt.Errorf("dump statements: %w", err)
	}
	exp, err := export.NewExporter(format)
	if err != nil {
		return nil, fmt.Errorf("dump statements: %w", err)
	}

	var paths []string
	for _, d := range docs {
		if d.Err != nil {
			continue
		}
		path, err := exp.ExportFile(p.cfg.Output.DumpDir, d.Source, d.sets.Statements())
		if err != nil {
			return paths, fmt.Errorf("dump statements: %w", err)
		}
		paths = append(paths, path)
	}
	p.logger.Info("Dumped cleaned statements", "dir", p.cfg.Output.DumpDir, "format", format, "files", len(paths))
	return paths, nil
}

func record(m *metrics.Run, docs []*Document, res *loader.Result) {
	for _, d := range docs {
		if d.Err != nil {
			continue
		}
		m.Documents.Inc()
		for kinds, n := range d.Counts {
			bucket := kinds[0].String() + "_" + kinds[1].String()
			m.Statements.WithLabelValues(d.Source, bucket).Add(float64(n))
		}
		m.Flattened.WithLabelValues(string(flattener.PatternAxiom)).Add(float64(d.Flatten.Axioms))
		m.Flattened.WithLabelValues(string(flattener.PatternRestriction)).Add(float64(d.Flatten.Restrictions))
		m.UnmatchedGroups.WithLabelValues(d.Source).Add(float64(len(d.Flatten.Unmatched)))
		m.Anomalies.Add(float64(d.Flatten.Anomalies))
	}

	m.Vertices.WithLabelValues(storage.OutcomeInserted.String()).Add(float64(res.VerticesInserted))
	m.Vertices.WithLabelValues(storage.OutcomeUpdated.String()).Add(float64(res.VerticesUpdated))
	m.Vertices.WithLabelValues("failed").Add(float64(res.VerticesFailed))
	m.Vertices.WithLabelValues("deprecated").Add(float64(len(res.Deprecated)))
	m.Edges.WithLabelValues(storage.OutcomeInserted.String()).Add(float64(res.EdgesInserted))
	m.Edges.WithLabelValues(storage.OutcomeUpdated.String()).Add(float64(res.EdgesUpdated))
	m.Edges.WithLabelValues("failed").Add(float64(res.EdgesFailed))
	m.Edges.WithLabelValues(storage.OutcomeSkippedDangling.String()).Add(float64(res.EdgesDangling))
}

func (p *Pipeline) exportMetrics(ctx context.Context, m *metrics.Run) {
	if path := p.cfg.Metrics.Textfile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			p.logger.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}
	if url := p.cfg.Metrics.Pushgateway; url != "" {
		if err := m.Push(context.WithoutCancel(ctx), url, p.cfg.Metrics.Job); err != nil {
			p.logger.Warn("Failed to push metrics", "url", url, "error", err)
		}
	}
}
