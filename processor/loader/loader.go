// Package loader persists an assembled graph through the storage contract:
// a full rebuild of the target database and graph, all vertices, then every
// edge whose endpoints were persisted.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/ontokn/processor/assembler"
	"github.com/c360studio/ontokn/storage"
)

// Config names the load target.
type Config struct {
	Database string
	Graph    string
}

// Result counts the outcome of one load.
type Result struct {
	VerticesInserted int
	VerticesUpdated  int
	VerticesFailed   int
	EdgesInserted    int
	EdgesUpdated     int
	EdgesFailed      int
	// EdgesDangling counts edges skipped because an endpoint was never
	// persisted.
	EdgesDangling int
	// Deprecated lists the terms diverted instead of loaded, e.g.
	// "CL_0000001", in load order.
	Deprecated []string
}

// Loader writes assembled graphs to a store.
type Loader struct {
	client storage.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a loader.
func New(client storage.Client, cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, cfg: cfg, logger: logger}
}

// Load rebuilds the target from scratch and writes g. Individual upsert
// failures are logged and counted; only failures to prepare the database,
// graph or collections abort the load.
func (l *Loader) Load(ctx context.Context, g *assembler.Graph) (*Result, error) {
	target, err := l.prepare(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	persisted, err := l.loadVertices(ctx, target, g, res)
	if err != nil {
		return res, err
	}
	if err := l.loadEdges(ctx, target, g, persisted, res); err != nil {
		return res, err
	}

	l.logger.Info("Graph loaded",
		"database", l.cfg.Database,
		"graph", l.cfg.Graph,
		"vertices_inserted", res.VerticesInserted,
		"vertices_updated", res.VerticesUpdated,
		"deprecated", len(res.Deprecated),
		"edges_inserted", res.EdgesInserted,
		"edges_updated", res.EdgesUpdated,
		"edges_dangling", res.EdgesDangling,
		"failures", res.VerticesFailed+res.EdgesFailed)
	return res, nil
}

func (l *Loader) prepare(ctx context.Context) (storage.Graph, error) {
	if err := l.client.DropDatabase(ctx, l.cfg.Database); err != nil {
		return nil, fmt.Errorf("drop database: %w", err)
	}
	db, err := l.client.Database(ctx, l.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.DropGraph(ctx, l.cfg.Graph); err != nil {
		return nil, fmt.Errorf("drop graph: %w", err)
	}
	g, err := db.Graph(ctx, l.cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	return g, nil
}

func (l *Loader) loadVertices(ctx context.Context, target storage.Graph, g *assembler.Graph, res *Result) (map[string]struct{}, error) {
	for _, name := range g.VertexCollections() {
		if err := target.EnsureVertexCollection(ctx, name); err != nil {
			return nil, fmt.Errorf("ensure vertex collection: %w", err)
		}
	}

	persisted := make(map[string]struct{}, len(g.Vertices))
	for _, v := range g.Vertices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v.Deprecated() {
			res.Deprecated = append(res.Deprecated, v.Key.Term())
			continue
		}

		out, err := target.UpsertVertex(ctx, v.Key.VocabularyID, v.Key.LocalNumber, v.Document())
		if err != nil {
			res.VerticesFailed++
			l.logger.Error("Failed to upsert vertex", "vertex", v.Key.ID(), "error", err)
			continue
		}
		switch out {
		case storage.OutcomeInserted:
			res.VerticesInserted++
		case storage.OutcomeUpdated:
			res.VerticesUpdated++
		}
		persisted[v.Key.ID()] = struct{}{}
	}
	return persisted, nil
}

func (l *Loader) loadEdges(ctx context.Context, target storage.Graph, g *assembler.Graph, persisted map[string]struct{}, res *Result) error {
	for _, ec := range g.EdgeCollections() {
		if err := target.EnsureEdgeCollection(ctx, ec.Name, ec.From, ec.To); err != nil {
			return fmt.Errorf("ensure edge collection: %w", err)
		}
	}

	for _, e := range g.Edges {
		if err := ctx.Err(); err != nil {
			return err
		}

		from, to := e.Key.From().ID(), e.Key.To().ID()
		_, okFrom := persisted[from]
		_, okTo := persisted[to]
		if !okFrom || !okTo {
			res.EdgesDangling++
			continue
		}

		out, err := target.UpsertEdge(ctx, e.Key.Collection(), e.Key.Key(), from, to, e.Document())
		if err != nil {
			res.EdgesFailed++
			l.logger.Error("Failed to upsert edge",
				"collection", e.Key.Collection(),
				"key", e.Key.Key(),
				"error", err)
			continue
		}
		switch out {
		case storage.OutcomeInserted:
			res.EdgesInserted++
		case storage.OutcomeUpdated:
			res.EdgesUpdated++
		case storage.OutcomeSkippedDangling:
			res.EdgesDangling++
		}
	}
	return nil
}
