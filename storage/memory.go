package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// MemoryClient is an in-process graph store. It backs dry runs and tests.
type MemoryClient struct {
	mu        sync.Mutex
	databases map[string]*MemoryDatabase
	logger    *slog.Logger
}

// NewMemoryClient creates an empty in-memory store.
func NewMemoryClient(logger *slog.Logger) *MemoryClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryClient{databases: make(map[string]*MemoryDatabase), logger: logger}
}

// DropDatabase removes a database if it exists.
func (c *MemoryClient) DropDatabase(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.databases[name]; ok {
		delete(c.databases, name)
		c.logger.Info("Dropped database", "database", name)
	}
	return nil
}

// Database returns the named database, creating it if needed.
func (c *MemoryClient) Database(_ context.Context, name string) (Database, error) {
	return c.database(name), nil
}

// MemoryDatabase returns the concrete database for inspection.
func (c *MemoryClient) MemoryDatabase(name string) (*MemoryDatabase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	db, ok := c.databases[name]
	return db, ok
}

func (c *MemoryClient) database(name string) *MemoryDatabase {
	c.mu.Lock()
	defer c.mu.Unlock()
	db, ok := c.databases[name]
	if ok {
		c.logger.Debug("Database exists", "database", name)
		return db
	}
	db = &MemoryDatabase{name: name, graphs: make(map[string]*MemoryGraph), logger: c.logger}
	c.databases[name] = db
	c.logger.Info("Created database", "database", name)
	return db
}

// Close is a no-op.
func (c *MemoryClient) Close(context.Context) error { return nil }

// MemoryDatabase is a database of a MemoryClient.
type MemoryDatabase struct {
	mu     sync.Mutex
	name   string
	graphs map[string]*MemoryGraph
	logger *slog.Logger
}

// DropGraph removes a graph if it exists.
func (d *MemoryDatabase) DropGraph(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.graphs[name]; ok {
		delete(d.graphs, name)
		d.logger.Info("Dropped graph", "database", d.name, "graph", name)
	}
	return nil
}

// Graph returns the named graph, creating it if needed.
func (d *MemoryDatabase) Graph(_ context.Context, name string) (Graph, error) {
	return d.graph(name), nil
}

// MemoryGraph returns the concrete graph for inspection.
func (d *MemoryDatabase) MemoryGraph(name string) (*MemoryGraph, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.graphs[name]
	return g, ok
}

func (d *MemoryDatabase) graph(name string) *MemoryGraph {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.graphs[name]
	if ok {
		d.logger.Debug("Graph exists", "graph", name)
		return g
	}
	g = &MemoryGraph{
		name:        name,
		vertices:    make(map[string]map[string]map[string]any),
		edges:       make(map[string]map[string]map[string]any),
		constraints: make(map[string][2]string),
		logger:      d.logger,
	}
	d.graphs[name] = g
	d.logger.Info("Created graph", "database", d.name, "graph", name)
	return g
}

// MemoryGraph stores documents by collection and key.
type MemoryGraph struct {
	mu          sync.Mutex
	name        string
	vertices    map[string]map[string]map[string]any
	edges       map[string]map[string]map[string]any
	constraints map[string][2]string
	logger      *slog.Logger
}

// EnsureVertexCollection creates a vertex collection if needed.
func (g *MemoryGraph) EnsureVertexCollection(_ context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.vertices[name]; ok {
		g.logger.Debug("Vertex collection exists", "collection", name)
		return nil
	}
	g.vertices[name] = make(map[string]map[string]any)
	g.logger.Debug("Created vertex collection", "collection", name)
	return nil
}

// EnsureEdgeCollection creates an edge collection if needed.
func (g *MemoryGraph) EnsureEdgeCollection(_ context.Context, name, from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.edges[name]; ok {
		g.logger.Debug("Edge collection exists", "collection", name)
		return nil
	}
	g.edges[name] = make(map[string]map[string]any)
	g.constraints[name] = [2]string{from, to}
	g.logger.Debug("Created edge collection", "collection", name, "from", from, "to", to)
	return nil
}

// UpsertVertex creates or updates a vertex document.
func (g *MemoryGraph) UpsertVertex(_ context.Context, collection, key string, attrs map[string]any) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	col, ok := g.vertices[collection]
	if !ok {
		return 0, fmt.Errorf("upsert vertex %s/%s: %w", collection, key, ErrCollectionMissing)
	}
	if doc, ok := col[key]; ok {
		Merge(doc, attrs)
		return OutcomeUpdated, nil
	}
	col[key] = Merge(map[string]any{"_key": key}, attrs)
	return OutcomeInserted, nil
}

// UpsertEdge creates or updates an edge document when both endpoints exist.
func (g *MemoryGraph) UpsertEdge(_ context.Context, collection, key, from, to string, attrs map[string]any) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	col, ok := g.edges[collection]
	if !ok {
		return 0, fmt.Errorf("upsert edge %s/%s: %w", collection, key, ErrCollectionMissing)
	}
	if !g.hasVertex(from) || !g.hasVertex(to) {
		return OutcomeSkippedDangling, nil
	}
	if doc, ok := col[key]; ok {
		Merge(doc, attrs)
		return OutcomeUpdated, nil
	}
	col[key] = Merge(map[string]any{"_key": key, "_from": from, "_to": to}, attrs)
	return OutcomeInserted, nil
}

func (g *MemoryGraph) hasVertex(handle string) bool {
	collection, key, ok := SplitHandle(handle)
	if !ok {
		return false
	}
	_, ok = g.vertices[collection][key]
	return ok
}

// Vertex returns a copy of a stored vertex document.
func (g *MemoryGraph) Vertex(collection, key string) (map[string]any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	doc, ok := g.vertices[collection][key]
	return copyDoc(doc), ok
}

// Edge returns a copy of a stored edge document.
func (g *MemoryGraph) Edge(collection, key string) (map[string]any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	doc, ok := g.edges[collection][key]
	return copyDoc(doc), ok
}

// VertexCount returns the number of stored vertices.
func (g *MemoryGraph) VertexCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, col := range g.vertices {
		n += len(col)
	}
	return n
}

// EdgeCount returns the number of stored edges.
func (g *MemoryGraph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, col := range g.edges {
		n += len(col)
	}
	return n
}

// Collections returns the vertex and edge collection names, sorted.
func (g *MemoryGraph) Collections() (vertices, edges []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for name := range g.vertices {
		vertices = append(vertices, name)
	}
	for name := range g.edges {
		edges = append(edges, name)
	}
	sort.Strings(vertices)
	sort.Strings(edges)
	return vertices, edges
}

func copyDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
