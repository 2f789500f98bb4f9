// Package arangodb implements the graph-store contract on ArangoDB named
// graphs: one vertex collection per vocabulary and one edge collection per
// vocabulary pair.
package arangodb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	driver "github.com/arangodb/go-driver"
	arangohttp "github.com/arangodb/go-driver/http"

	"github.com/c360studio/ontokn/storage"
)

// Config holds connection settings.
type Config struct {
	Endpoints []string
	User      string
	Password  string
}

// Client is a connection to an ArangoDB server.
type Client struct {
	client driver.Client
	logger *slog.Logger
}

// New connects to ArangoDB.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := arangohttp.NewConnection(arangohttp.ConnectionConfig{Endpoints: cfg.Endpoints})
	if err != nil {
		return nil, fmt.Errorf("create arangodb connection: %w", err)
	}

	c, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(cfg.User, cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("create arangodb client: %w", err)
	}

	return &Client{client: c, logger: logger}, nil
}

// DropDatabase removes a database if it exists.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	exists, err := c.client.DatabaseExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check database %s: %w", name, err)
	}
	if !exists {
		c.logger.Debug("Database does not exist", "database", name)
		return nil
	}

	db, err := c.client.Database(ctx, name)
	if err != nil {
		return fmt.Errorf("open database %s: %w", name, err)
	}
	if err := db.Remove(ctx); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	c.logger.Info("Dropped database", "database", name)
	return nil
}

// Database returns the named database, creating it if needed.
func (c *Client) Database(ctx context.Context, name string) (storage.Database, error) {
	exists, err := c.client.DatabaseExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check database %s: %w", name, err)
	}

	var db driver.Database
	if exists {
		db, err = c.client.Database(ctx, name)
	} else {
		db, err = c.client.CreateDatabase(ctx, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", name, err)
	}
	c.logger.Info("Using database", "database", name, "created", !exists)

	return &Database{db: db, logger: c.logger}, nil
}

// Close releases the client. HTTP connections need no explicit close.
func (c *Client) Close(context.Context) error { return nil }

// Database wraps an ArangoDB database.
type Database struct {
	db     driver.Database
	logger *slog.Logger
}

// DropGraph removes a graph if it exists.
func (d *Database) DropGraph(ctx context.Context, name string) error {
	exists, err := d.db.GraphExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check graph %s: %w", name, err)
	}
	if !exists {
		return nil
	}

	g, err := d.db.Graph(ctx, name)
	if err != nil {
		return fmt.Errorf("open graph %s: %w", name, err)
	}
	if err := g.Remove(ctx); err != nil {
		return fmt.Errorf("drop graph %s: %w", name, err)
	}
	d.logger.Info("Dropped graph", "graph", name)
	return nil
}

// Graph returns the named graph, creating it if needed.
func (d *Database) Graph(ctx context.Context, name string) (storage.Graph, error) {
	exists, err := d.db.GraphExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check graph %s: %w", name, err)
	}

	var g driver.Graph
	if exists {
		g, err = d.db.Graph(ctx, name)
	} else {
		g, err = d.db.CreateGraph(ctx, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open graph %s: %w", name, err)
	}
	d.logger.Info("Using graph", "graph", name, "created", !exists)

	return &Graph{
		graph:    g,
		vertices: make(map[string]driver.Collection),
		edges:    make(map[string]driver.Collection),
		logger:   d.logger,
	}, nil
}

// Graph wraps an ArangoDB named graph and caches its collection handles.
type Graph struct {
	graph    driver.Graph
	mu       sync.Mutex
	vertices map[string]driver.Collection
	edges    map[string]driver.Collection
	logger   *slog.Logger
}

// EnsureVertexCollection creates a vertex collection if needed.
func (g *Graph) EnsureVertexCollection(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.vertices[name]; ok {
		return nil
	}

	exists, err := g.graph.VertexCollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check vertex collection %s: %w", name, err)
	}

	var col driver.Collection
	if exists {
		col, err = g.graph.VertexCollection(ctx, name)
	} else {
		col, err = g.graph.CreateVertexCollection(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("open vertex collection %s: %w", name, err)
	}
	g.logger.Debug("Using vertex collection", "collection", name, "created", !exists)

	g.vertices[name] = col
	return nil
}

// EnsureEdgeCollection creates an edge collection if needed.
func (g *Graph) EnsureEdgeCollection(ctx context.Context, name, from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.edges[name]; ok {
		return nil
	}

	exists, err := g.graph.EdgeCollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check edge collection %s: %w", name, err)
	}

	var col driver.Collection
	if exists {
		col, _, err = g.graph.EdgeCollection(ctx, name)
	} else {
		col, err = g.graph.CreateEdgeCollection(ctx, name, driver.VertexConstraints{
			From: []string{from},
			To:   []string{to},
		})
	}
	if err != nil {
		return fmt.Errorf("open edge collection %s: %w", name, err)
	}
	g.logger.Debug("Using edge collection", "collection", name, "from", from, "to", to, "created", !exists)

	g.edges[name] = col
	return nil
}

func (g *Graph) vertexCollection(name string) (driver.Collection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	col, ok := g.vertices[name]
	return col, ok
}

func (g *Graph) edgeCollection(name string) (driver.Collection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	col, ok := g.edges[name]
	return col, ok
}

// UpsertVertex creates or updates a vertex document.
func (g *Graph) UpsertVertex(ctx context.Context, collection, key string, attrs map[string]any) (storage.Outcome, error) {
	col, ok := g.vertexCollection(collection)
	if !ok {
		return 0, fmt.Errorf("upsert vertex %s/%s: %w", collection, key, storage.ErrCollectionMissing)
	}
	doc := storage.Merge(map[string]any{"_key": key}, attrs)
	return upsert(ctx, col, key, doc, attrs)
}

// UpsertEdge creates or updates an edge document when both endpoints exist.
func (g *Graph) UpsertEdge(ctx context.Context, collection, key, from, to string, attrs map[string]any) (storage.Outcome, error) {
	col, ok := g.edgeCollection(collection)
	if !ok {
		return 0, fmt.Errorf("upsert edge %s/%s: %w", collection, key, storage.ErrCollectionMissing)
	}

	for _, handle := range []string{from, to} {
		exists, err := g.vertexExists(ctx, handle)
		if err != nil {
			return 0, err
		}
		if !exists {
			return storage.OutcomeSkippedDangling, nil
		}
	}

	doc := storage.Merge(map[string]any{"_key": key, "_from": from, "_to": to}, attrs)
	return upsert(ctx, col, key, doc, attrs)
}

func (g *Graph) vertexExists(ctx context.Context, handle string) (bool, error) {
	collection, key, ok := storage.SplitHandle(handle)
	if !ok {
		return false, nil
	}
	col, ok := g.vertexCollection(collection)
	if !ok {
		return false, nil
	}
	exists, err := col.DocumentExists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check vertex %s: %w", handle, err)
	}
	return exists, nil
}

func upsert(ctx context.Context, col driver.Collection, key string, doc, attrs map[string]any) (storage.Outcome, error) {
	exists, err := col.DocumentExists(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("check document %s/%s: %w", col.Name(), key, err)
	}

	if !exists {
		_, err := col.CreateDocument(ctx, doc)
		if err == nil {
			return storage.OutcomeInserted, nil
		}
		if !driver.IsConflict(err) {
			return 0, fmt.Errorf("create document %s/%s: %w", col.Name(), key, err)
		}
	}

	if _, err := col.UpdateDocument(ctx, key, attrs); err != nil {
		return 0, fmt.Errorf("update document %s/%s: %w", col.Name(), key, err)
	}
	return storage.OutcomeUpdated, nil
}

var (
	_ storage.Client   = (*Client)(nil)
	_ storage.Database = (*Database)(nil)
	_ storage.Graph    = (*Graph)(nil)
)
