// Package neo4j implements the graph-store contract on Neo4j.
//
// Vertex collections become node labels and edge collections relationship
// types. Neo4j has no named graphs inside a database, so every node carries
// a _graph property and graph operations are scoped by it.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/c360studio/ontokn/storage"
)

// Config holds connection settings.
type Config struct {
	URL      string
	User     string
	Password string
	// FallbackDatabase is used when the server cannot create databases
	// (Community Edition). Defaults to "neo4j".
	FallbackDatabase string
}

// Client is a connection to a Neo4j server.
type Client struct {
	driver   neo4j.DriverWithContext
	fallback string
	logger   *slog.Logger
}

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FallbackDatabase == "" {
		cfg.FallbackDatabase = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URL, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}

	return &Client{driver: driver, fallback: cfg.FallbackDatabase, logger: logger}, nil
}

// run executes one auto-commit statement.
func (c *Client) run(ctx context.Context, database, cypher string, params map[string]any) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database, AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

// DropDatabase removes a database if it exists. Servers without
// multi-database support keep their data; DropGraph clears it instead.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	if err := c.run(ctx, "system", "DROP DATABASE $name IF EXISTS WAIT", map[string]any{"name": name}); err != nil {
		c.logger.Warn("Failed to drop database, relying on graph cleanup", "database", name, "error", err)
		return nil
	}
	c.logger.Info("Dropped database", "database", name)
	return nil
}

// Database returns the named database, creating it if the server allows.
func (c *Client) Database(ctx context.Context, name string) (storage.Database, error) {
	if err := c.run(ctx, "system", "CREATE DATABASE $name IF NOT EXISTS WAIT", map[string]any{"name": name}); err != nil {
		c.logger.Warn("Failed to create database, using fallback",
			"database", name,
			"fallback", c.fallback,
			"error", err)
		return &Database{client: c, name: c.fallback}, nil
	}
	c.logger.Info("Using database", "database", name)
	return &Database{client: c, name: name}, nil
}

// Close closes the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Database is a Neo4j database.
type Database struct {
	client *Client
	name   string
}

// DropGraph deletes every node of the graph and its relationships.
func (d *Database) DropGraph(ctx context.Context, name string) error {
	cypher := "MATCH (n {_graph: $graph}) CALL { WITH n DETACH DELETE n } IN TRANSACTIONS OF 10000 ROWS"
	if err := d.client.run(ctx, d.name, cypher, map[string]any{"graph": name}); err != nil {
		return fmt.Errorf("drop graph %s: %w", name, err)
	}
	d.client.logger.Info("Dropped graph", "database", d.name, "graph", name)
	return nil
}

// Graph returns a handle scoped to the named graph. Nothing is created until
// documents are written.
func (d *Database) Graph(_ context.Context, name string) (storage.Graph, error) {
	return &Graph{client: d.client, database: d.name, name: name}, nil
}

// Graph is a _graph-scoped view of a Neo4j database.
type Graph struct {
	client   *Client
	database string
	name     string
}

// quote escapes a label or relationship type for use in Cypher.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// EnsureVertexCollection creates a key index for the vertex label.
func (g *Graph) EnsureVertexCollection(ctx context.Context, name string) error {
	cypher := fmt.Sprintf("CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n._graph, n._key)", quote(name))
	if err := g.client.run(ctx, g.database, cypher, nil); err != nil {
		return fmt.Errorf("ensure vertex collection %s: %w", name, err)
	}
	g.client.logger.Debug("Using vertex collection", "collection", name)
	return nil
}

// EnsureEdgeCollection is a no-op: relationship types exist once used.
func (g *Graph) EnsureEdgeCollection(_ context.Context, name, from, to string) error {
	g.client.logger.Debug("Using edge collection", "collection", name, "from", from, "to", to)
	return nil
}

func (g *Graph) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.client.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: g.database, AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// UpsertVertex creates or updates a node.
func (g *Graph) UpsertVertex(ctx context.Context, collection, key string, attrs map[string]any) (storage.Outcome, error) {
	label := quote(collection)
	params := map[string]any{"graph": g.name, "key": key, "props": attrs}

	out, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf("MATCH (n:%s {_graph: $graph, _key: $key}) RETURN count(n) AS c", label), params)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if count, _ := rec.Get("c"); count.(int64) > 0 {
			_, err = tx.Run(ctx, fmt.Sprintf("MATCH (n:%s {_graph: $graph, _key: $key}) SET n += $props", label), params)
			return storage.OutcomeUpdated, err
		}
		_, err = tx.Run(ctx, fmt.Sprintf("CREATE (n:%s {_graph: $graph, _key: $key}) SET n += $props", label), params)
		return storage.OutcomeInserted, err
	})
	if err != nil {
		return 0, fmt.Errorf("upsert vertex %s/%s: %w", collection, key, err)
	}
	return out.(storage.Outcome), nil
}

// UpsertEdge creates or updates a relationship when both endpoint nodes
// exist.
func (g *Graph) UpsertEdge(ctx context.Context, collection, key, from, to string, attrs map[string]any) (storage.Outcome, error) {
	fromCol, fromKey, ok := storage.SplitHandle(from)
	if !ok {
		return storage.OutcomeSkippedDangling, nil
	}
	toCol, toKey, ok := storage.SplitHandle(to)
	if !ok {
		return storage.OutcomeSkippedDangling, nil
	}

	match := fmt.Sprintf("MATCH (a:%s {_graph: $graph, _key: $from}), (b:%s {_graph: $graph, _key: $to})",
		quote(fromCol), quote(toCol))
	rel := quote(collection)
	params := map[string]any{"graph": g.name, "from": fromKey, "to": toKey, "key": key, "props": attrs}

	out, err := g.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, match+fmt.Sprintf(" OPTIONAL MATCH (a)-[r:%s {_key: $key}]->(b) RETURN count(r) AS c", rel), params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return storage.OutcomeSkippedDangling, nil
		}
		if count, _ := records[0].Get("c"); count.(int64) > 0 {
			_, err = tx.Run(ctx, match+fmt.Sprintf(" MATCH (a)-[r:%s {_key: $key}]->(b) SET r += $props", rel), params)
			return storage.OutcomeUpdated, err
		}
		_, err = tx.Run(ctx, match+fmt.Sprintf(" CREATE (a)-[r:%s {_key: $key}]->(b) SET r += $props", rel), params)
		return storage.OutcomeInserted, err
	})
	if err != nil {
		return 0, fmt.Errorf("upsert edge %s/%s: %w", collection, key, err)
	}
	return out.(storage.Outcome), nil
}

var (
	_ storage.Client   = (*Client)(nil)
	_ storage.Database = (*Database)(nil)
	_ storage.Graph    = (*Graph)(nil)
)
