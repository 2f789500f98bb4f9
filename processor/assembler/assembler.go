// Package assembler folds cleaned named/named statements into deduplicated
// vertex and edge records.
//
// Records are owned by shard goroutines: vertex work is routed by vocabulary
// id and edge work by vocabulary pair, so each record has exactly one writer.
// Add must be called from a single goroutine; statements reach each shard in
// the order they were added, which keeps the order-sensitive attribute merge
// deterministic.
package assembler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/c360studio/ontokn/processor/resolver"
	"github.com/c360studio/ontokn/triple"
)

// ErrClosed is returned by Add after Close.
var ErrClosed = errors.New("assembler closed")

// Config configures an Assembler.
type Config struct {
	// Shards is the number of record-owning goroutines. Values below 1 mean 1.
	Shards int
	// Buffer is the channel depth of each shard.
	Buffer int
	// Sources and Labels are the explicit normalization tables.
	Sources map[string]string
	Labels  map[string]string
}

type opKind uint8

const (
	opVertex opKind = iota
	opAttribute
	opEdge
)

type op struct {
	kind   opKind
	vertex VertexKey
	attr   string
	value  string
	edge   EdgeKey
	label  string
	source string
}

type shard struct {
	in       chan op
	vertices map[VertexKey]*VertexRecord
	edges    map[EdgeKey]*EdgeRecord
}

func (s *shard) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for o := range s.in {
		switch o.kind {
		case opVertex:
			s.vertex(o.vertex)
		case opAttribute:
			s.vertex(o.vertex).add(o.attr, o.value)
		case opEdge:
			e, ok := s.edges[o.edge]
			if !ok {
				e = newEdgeRecord(o.edge)
				s.edges[o.edge] = e
			}
			e.Labels[o.label] = struct{}{}
			e.Sources[o.source] = struct{}{}
		}
	}
}

func (s *shard) vertex(k VertexKey) *VertexRecord {
	v, ok := s.vertices[k]
	if !ok {
		v = newVertexRecord(k)
		s.vertices[k] = v
	}
	return v
}

// Stats counts what Add saw.
type Stats struct {
	Statements      int
	Attributes      int
	Edges           int
	InvalidSubjects int
	SkippedLiterals int
	LabelFailures   int
}

func (s *Stats) add(o Stats) {
	s.Statements += o.Statements
	s.Attributes += o.Attributes
	s.Edges += o.Edges
	s.InvalidSubjects += o.InvalidSubjects
	s.SkippedLiterals += o.SkippedLiterals
	s.LabelFailures += o.LabelFailures
}

// Assembler builds the vertex and edge records of a run.
type Assembler struct {
	resolver *resolver.Context
	sources  *Normalizer
	labels   *Normalizer
	shards   []*shard
	wg       sync.WaitGroup
	logger   *slog.Logger
	stats    Stats
	closed   bool
}

// New starts the shard goroutines. Close must be called to collect the
// result.
func New(ctx *resolver.Context, cfg Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	n := cfg.Shards
	if n < 1 {
		n = 1
	}
	buf := cfg.Buffer
	if buf < 1 {
		buf = 1024
	}

	a := &Assembler{
		resolver: ctx,
		sources:  NewNormalizer(cfg.Sources),
		labels:   NewNormalizer(cfg.Labels),
		shards:   make([]*shard, n),
		logger:   logger,
	}
	for i := range a.shards {
		s := &shard{
			in:       make(chan op, buf),
			vertices: make(map[VertexKey]*VertexRecord),
			edges:    make(map[EdgeKey]*EdgeRecord),
		}
		a.shards[i] = s
		a.wg.Add(1)
		go s.run(&a.wg)
	}
	return a
}

func (a *Assembler) shardFor(key string) *shard {
	return a.shards[xxhash.Sum64String(key)%uint64(len(a.shards))]
}

// routed is a shard operation with the key that selects its shard.
type routed struct {
	key string
	op  op
}

func (a *Assembler) send(ops []routed) {
	for _, r := range ops {
		a.shardFor(r.key).in <- r.op
	}
}

// AddDocument adds every statement of a cleaned document. Statements whose
// predicate cannot be labeled are logged and skipped. Nothing reaches the
// shards unless the whole document resolves.
func (a *Assembler) AddDocument(source string, triples []triple.Triple) error {
	if a.closed {
		return ErrClosed
	}

	var (
		st  Stats
		ops []routed
	)
	for _, t := range triples {
		r, err := a.resolve(source, t, &st)
		ops = append(ops, r...)
		if err != nil {
			if errors.Is(err, resolver.ErrMalformedPredicate) {
				a.logger.Warn("Skipping statement", "source", source, "statement", t.String(), "error", err)
				continue
			}
			return err
		}
	}

	a.stats.add(st)
	a.send(ops)
	return nil
}

// Add folds one named/named statement from the document with the given
// source token into the records. The statement's vertices are kept even
// when its predicate cannot be labeled.
func (a *Assembler) Add(source string, t triple.Triple) error {
	if a.closed {
		return ErrClosed
	}

	var st Stats
	ops, err := a.resolve(source, t, &st)
	a.stats.add(st)
	a.send(ops)
	return err
}

// resolve computes the shard operations of one statement and counts them in
// st. On a label failure the vertex operations are still returned.
func (a *Assembler) resolve(source string, t triple.Triple, st *Stats) ([]routed, error) {
	st.Statements++

	var ops []routed
	s := a.resolver.Resolve(t.Subject)
	o := a.resolver.Resolve(t.Object)

	var sk, obj VertexKey
	if s.Valid {
		sk = VertexKey{s.VocabularyID, s.LocalNumber}
		ops = append(ops, routed{sk.VocabularyID, op{kind: opVertex, vertex: sk}})
	} else {
		st.InvalidSubjects++
	}
	if o.Valid {
		obj = VertexKey{o.VocabularyID, o.LocalNumber}
		ops = append(ops, routed{obj.VocabularyID, op{kind: opVertex, vertex: obj}})
	}

	if !s.Valid {
		if t.Object.IsLiteral() {
			st.SkippedLiterals++
		}
		return ops, nil
	}

	switch {
	case t.Object.IsLiteral():
		attr, err := a.label(t.Predicate, st)
		if err != nil {
			return ops, err
		}
		st.Attributes++
		ops = append(ops, routed{sk.VocabularyID, op{kind: opAttribute, vertex: sk, attr: attr, value: t.Object.Value}})

	case o.Valid:
		label, err := a.label(t.Predicate, st)
		if err != nil {
			return ops, err
		}
		ek := EdgeKey{
			SubjectVocabularyID: sk.VocabularyID,
			ObjectVocabularyID:  obj.VocabularyID,
			SubjectNumber:       sk.LocalNumber,
			ObjectNumber:        obj.LocalNumber,
		}
		st.Edges++
		ops = append(ops, routed{ek.Collection(), op{
			kind:   opEdge,
			edge:   ek,
			label:  a.labels.Normalize(label),
			source: a.sources.Normalize(source),
		}})
	}
	return ops, nil
}

func (a *Assembler) label(p triple.Node, st *Stats) (string, error) {
	l, err := a.resolver.Label(p)
	if err != nil {
		st.LabelFailures++
		return "", fmt.Errorf("label predicate: %w", err)
	}
	return l, nil
}

// Graph is the assembled result of a run.
type Graph struct {
	Vertices []*VertexRecord
	Edges    []*EdgeRecord
	// SourceMappings and LabelMappings list every normalization applied.
	SourceMappings []Mapping
	LabelMappings  []Mapping
	Stats          Stats
}

// Close stops the shards and returns the records sorted by key.
func (a *Assembler) Close() *Graph {
	if !a.closed {
		a.closed = true
		for _, s := range a.shards {
			close(s.in)
		}
	}
	a.wg.Wait()

	g := &Graph{
		SourceMappings: a.sources.Seen(),
		LabelMappings:  a.labels.Seen(),
		Stats:          a.stats,
	}
	for _, s := range a.shards {
		for _, v := range s.vertices {
			g.Vertices = append(g.Vertices, v)
		}
		for _, e := range s.edges {
			g.Edges = append(g.Edges, e)
		}
	}

	sort.Slice(g.Vertices, func(i, j int) bool {
		return lessVertex(g.Vertices[i].Key, g.Vertices[j].Key)
	})
	sort.Slice(g.Edges, func(i, j int) bool {
		x, y := g.Edges[i].Key, g.Edges[j].Key
		if x.Collection() != y.Collection() {
			return x.Collection() < y.Collection()
		}
		return x.Key() < y.Key()
	})
	return g
}

func lessVertex(a, b VertexKey) bool {
	if a.VocabularyID != b.VocabularyID {
		return a.VocabularyID < b.VocabularyID
	}
	return a.LocalNumber < b.LocalNumber
}

// VertexCollections returns the distinct vertex collections, sorted.
func (g *Graph) VertexCollections() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range g.Vertices {
		if _, ok := seen[v.Key.VocabularyID]; !ok {
			seen[v.Key.VocabularyID] = struct{}{}
			out = append(out, v.Key.VocabularyID)
		}
	}
	sort.Strings(out)
	return out
}

// EdgeCollection names an edge collection and the vertex collections it
// connects.
type EdgeCollection struct {
	Name string
	From string
	To   string
}

// EdgeCollections returns the distinct edge collections, sorted by name.
func (g *Graph) EdgeCollections() []EdgeCollection {
	seen := make(map[string]struct{})
	var out []EdgeCollection
	for _, e := range g.Edges {
		name := e.Key.Collection()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, EdgeCollection{Name: name, From: e.Key.SubjectVocabularyID, To: e.Key.ObjectVocabularyID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Vertex looks up a vertex by key. It is intended for inspection and tests;
// lookups are linear.
func (g *Graph) Vertex(k VertexKey) (*VertexRecord, bool) {
	for _, v := range g.Vertices {
		if v.Key == k {
			return v, true
		}
	}
	return nil, false
}

// Edge looks up an edge by key.
func (g *Graph) Edge(k EdgeKey) (*EdgeRecord, bool) {
	for _, e := range g.Edges {
		if e.Key == k {
			return e, true
		}
	}
	return nil, false
}
