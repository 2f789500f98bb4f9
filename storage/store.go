// Package storage defines the graph-store contract the loader writes
// through, and an in-memory implementation of it.
//
// Backends live in sub-packages (arangodb, neo4j, natskv). Every
// create-or-get operation logs whether it created the object or found it.
// Upserts check for the document first and create or update accordingly; a
// create that loses a race to a concurrent writer falls back to one update.
package storage

import (
	"context"
	"strings"
)

// Outcome is the effect of one upsert.
type Outcome int

const (
	OutcomeInserted Outcome = iota + 1
	OutcomeUpdated
	// OutcomeSkippedDangling means an edge endpoint does not exist.
	OutcomeSkippedDangling
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkippedDangling:
		return "skipped_dangling"
	default:
		return "unknown"
	}
}

// Client is a connection to a graph store.
type Client interface {
	// DropDatabase removes a database if it exists.
	DropDatabase(ctx context.Context, name string) error
	// Database returns the named database, creating it if needed.
	Database(ctx context.Context, name string) (Database, error)
	Close(ctx context.Context) error
}

// Database holds named graphs.
type Database interface {
	// DropGraph removes a graph if it exists.
	DropGraph(ctx context.Context, name string) error
	// Graph returns the named graph, creating it if needed.
	Graph(ctx context.Context, name string) (Graph, error)
}

// Graph holds vertex and edge collections.
type Graph interface {
	EnsureVertexCollection(ctx context.Context, name string) error
	// EnsureEdgeCollection ensures an edge collection connecting vertices of
	// collection from to vertices of collection to.
	EnsureEdgeCollection(ctx context.Context, name, from, to string) error
	UpsertVertex(ctx context.Context, collection, key string, attrs map[string]any) (Outcome, error)
	// UpsertEdge writes an edge between two vertex handles ("CL/0000235").
	// It returns OutcomeSkippedDangling without writing when either
	// endpoint is missing.
	UpsertEdge(ctx context.Context, collection, key, from, to string, attrs map[string]any) (Outcome, error)
}

// SplitHandle splits a vertex handle "CL/0000235" into collection and key.
func SplitHandle(handle string) (collection, key string, ok bool) {
	collection, key, ok = strings.Cut(handle, "/")
	if !ok || collection == "" || key == "" {
		return "", "", false
	}
	return collection, key, true
}

// Merge copies update into doc, replacing top-level attributes.
func Merge(doc, update map[string]any) map[string]any {
	if doc == nil {
		doc = make(map[string]any, len(update))
	}
	for k, v := range update {
		doc[k] = v
	}
	return doc
}
