// Package natskv implements the graph-store contract on NATS JetStream
// key-value buckets.
//
// Each graph owns two buckets, one for vertices and one for edges, named
// ONTOKN_<database>_<graph>_V and ONTOKN_<database>_<graph>_E. Keys are
// "<collection>.<key>" and values are JSON documents.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/ontokn/storage"
)

// BucketPrefix starts every bucket name owned by this store.
const BucketPrefix = "ONTOKN_"

var unsafeBucketChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func sanitize(name string) string {
	return unsafeBucketChars.ReplaceAllString(name, "_")
}

// BucketNames returns the vertex and edge bucket names of a graph.
func BucketNames(database, graph string) (vertices, edges string) {
	base := BucketPrefix + sanitize(database) + "_" + sanitize(graph)
	return base + "_V", base + "_E"
}

func databasePrefix(database string) string {
	return BucketPrefix + sanitize(database) + "_"
}

// DocumentKey builds the bucket key of a document.
func DocumentKey(collection, key string) string {
	return collection + "." + key
}

// Client is a JetStream-backed graph store.
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// Connect opens a NATS connection and a JetStream context.
func Connect(url string, logger *slog.Logger) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("ontokn-store"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c, err := New(nc, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an existing NATS connection. Close closes it.
func New(nc *nats.Conn, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &Client{nc: nc, js: js, logger: logger}, nil
}

// DropDatabase deletes every bucket of the database.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	prefix := databasePrefix(name)
	lister := c.js.KeyValueStoreNames(ctx)

	var buckets []string
	for bucket := range lister.Name() {
		if strings.HasPrefix(bucket, prefix) {
			buckets = append(buckets, bucket)
		}
	}
	if err := lister.Error(); err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}

	for _, bucket := range buckets {
		if err := c.js.DeleteKeyValue(ctx, bucket); err != nil && !errors.Is(err, jetstream.ErrBucketNotFound) {
			return fmt.Errorf("delete bucket %s: %w", bucket, err)
		}
	}
	c.logger.Info("Dropped database", "database", name, "buckets", len(buckets))
	return nil
}

// Database returns a handle for the database. Buckets are created per graph.
func (c *Client) Database(_ context.Context, name string) (storage.Database, error) {
	return &Database{client: c, name: name}, nil
}

// Close drains and closes the NATS connection.
func (c *Client) Close(context.Context) error {
	return c.nc.Drain()
}

// Database groups the buckets of its graphs.
type Database struct {
	client *Client
	name   string
}

// DropGraph deletes the graph's buckets.
func (d *Database) DropGraph(ctx context.Context, name string) error {
	v, e := BucketNames(d.name, name)
	for _, bucket := range []string{v, e} {
		if err := d.client.js.DeleteKeyValue(ctx, bucket); err != nil && !errors.Is(err, jetstream.ErrBucketNotFound) {
			return fmt.Errorf("delete bucket %s: %w", bucket, err)
		}
	}
	d.client.logger.Info("Dropped graph", "database", d.name, "graph", name)
	return nil
}

// Graph returns the named graph, creating its buckets if needed.
func (d *Database) Graph(ctx context.Context, name string) (storage.Graph, error) {
	v, e := BucketNames(d.name, name)

	vertices, err := d.getOrCreateBucket(ctx, v, "vertices")
	if err != nil {
		return nil, fmt.Errorf("create vertex bucket: %w", err)
	}
	edges, err := d.getOrCreateBucket(ctx, e, "edges")
	if err != nil {
		return nil, fmt.Errorf("create edge bucket: %w", err)
	}

	return &Graph{
		vertices:    vertices,
		edges:       edges,
		collections: make(map[string]struct{}),
		logger:      d.client.logger,
	}, nil
}

func (d *Database) getOrCreateBucket(ctx context.Context, bucket, kind string) (jetstream.KeyValue, error) {
	kv, err := d.client.js.KeyValue(ctx, bucket)
	if err == nil {
		d.client.logger.Debug("Bucket exists", "bucket", bucket)
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	d.client.logger.Info("Created bucket", "bucket", bucket)
	return d.client.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Ontology graph %s", kind),
		History:     1,
	})
}

// Graph stores vertex and edge documents in two buckets.
type Graph struct {
	vertices    jetstream.KeyValue
	edges       jetstream.KeyValue
	collections map[string]struct{}
	logger      *slog.Logger
}

// EnsureVertexCollection registers a collection name. Key-value buckets
// have no collection objects to create.
func (g *Graph) EnsureVertexCollection(_ context.Context, name string) error {
	g.collections[name] = struct{}{}
	g.logger.Debug("Using vertex collection", "collection", name)
	return nil
}

// EnsureEdgeCollection registers an edge collection name.
func (g *Graph) EnsureEdgeCollection(_ context.Context, name, from, to string) error {
	g.collections[name] = struct{}{}
	g.logger.Debug("Using edge collection", "collection", name, "from", from, "to", to)
	return nil
}

// UpsertVertex creates or updates a vertex document.
func (g *Graph) UpsertVertex(ctx context.Context, collection, key string, attrs map[string]any) (storage.Outcome, error) {
	if _, ok := g.collections[collection]; !ok {
		return 0, fmt.Errorf("upsert vertex %s/%s: %w", collection, key, storage.ErrCollectionMissing)
	}
	doc := storage.Merge(map[string]any{"_key": key}, attrs)
	return upsert(ctx, g.vertices, DocumentKey(collection, key), doc, attrs)
}

// UpsertEdge creates or updates an edge document when both endpoints exist.
func (g *Graph) UpsertEdge(ctx context.Context, collection, key, from, to string, attrs map[string]any) (storage.Outcome, error) {
	if _, ok := g.collections[collection]; !ok {
		return 0, fmt.Errorf("upsert edge %s/%s: %w", collection, key, storage.ErrCollectionMissing)
	}

	for _, handle := range []string{from, to} {
		col, k, ok := storage.SplitHandle(handle)
		if !ok {
			return storage.OutcomeSkippedDangling, nil
		}
		if _, err := g.vertices.Get(ctx, DocumentKey(col, k)); err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				return storage.OutcomeSkippedDangling, nil
			}
			return 0, fmt.Errorf("check vertex %s: %w", handle, err)
		}
	}

	doc := storage.Merge(map[string]any{"_key": key, "_from": from, "_to": to}, attrs)
	return upsert(ctx, g.edges, DocumentKey(collection, key), doc, attrs)
}

func upsert(ctx context.Context, kv jetstream.KeyValue, key string, doc, attrs map[string]any) (storage.Outcome, error) {
	entry, err := kv.Get(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}

	if entry == nil {
		data, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("marshal %s: %w", key, err)
		}
		_, err = kv.Create(ctx, key, data)
		if err == nil {
			return storage.OutcomeInserted, nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return 0, fmt.Errorf("store %s: %w", key, err)
		}
		if entry, err = kv.Get(ctx, key); err != nil {
			return 0, fmt.Errorf("get %s: %w", key, err)
		}
	}

	var existing map[string]any
	if err := json.Unmarshal(entry.Value(), &existing); err != nil {
		return 0, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	data, err := json.Marshal(storage.Merge(existing, attrs))
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", key, err)
	}
	if _, err := kv.Put(ctx, key, data); err != nil {
		return 0, fmt.Errorf("update %s: %w", key, err)
	}
	return storage.OutcomeUpdated, nil
}

var (
	_ storage.Client   = (*Client)(nil)
	_ storage.Database = (*Database)(nil)
	_ storage.Graph    = (*Graph)(nil)
)
