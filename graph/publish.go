// Package graph publishes a catalog of loaded ontologies to the semstreams
// knowledge graph over NATS.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/ontokn/report"
	"github.com/c360studio/ontokn/vocabulary/catalog"
)

// GraphIngestSubject is the default subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

const tripleSource = "ontokn.build"

// StreamPublisher publishes to a JetStream subject. *natsclient.Client
// satisfies it.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Publisher sends catalog entities.
type Publisher struct {
	nc      StreamPublisher
	subject string
	logger  *slog.Logger
}

// NewPublisher creates a publisher. A nil nc disables publication.
func NewPublisher(nc StreamPublisher, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		subject = GraphIngestSubject
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}
}

// Enabled reports whether entities are actually sent.
func (p *Publisher) Enabled() bool {
	return p.nc != nil
}

// PublishCatalog publishes one entity per catalog entry.
func (p *Publisher) PublishCatalog(ctx context.Context, runID string, entries []report.CatalogEntry) error {
	if p.nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	now := time.Now()
	for _, e := range entries {
		payload := &CatalogPayload{
			ID:         CatalogEntityID(e.Descriptor.Source),
			TripleData: CatalogTriples(runID, e, now),
			UpdatedAt:  now,
		}
		if err := payload.Validate(); err != nil {
			return fmt.Errorf("catalog entity %s: %w", e.Descriptor.Source, err)
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal catalog entity: %w", err)
		}
		if err := p.nc.PublishToStream(ctx, p.subject, data); err != nil {
			return fmt.Errorf("publish catalog entity: %w", err)
		}
		p.logger.Debug("Published catalog entity", "id", payload.ID, "triples", len(payload.TripleData))
	}

	p.logger.Info("Published ontology catalog", "subject", p.subject, "entities", len(entries))
	return nil
}

// CatalogEntityID generates a consistent entity ID for a loaded ontology.
// Format: ontokn.local.ontology.catalog.ontology.<source>
func CatalogEntityID(source string) string {
	return fmt.Sprintf("ontokn.local.ontology.catalog.ontology.%s", source)
}

// CatalogTriples describes one catalog entry. Empty descriptor fields are
// left out.
func CatalogTriples(runID string, e report.CatalogEntry, now time.Time) []message.Triple {
	id := CatalogEntityID(e.Descriptor.Source)
	d := e.Descriptor

	var triples []message.Triple
	add := func(predicate string, object any) {
		if s, ok := object.(string); ok && s == "" {
			return
		}
		triples = append(triples, message.Triple{
			Subject:    id,
			Predicate:  predicate,
			Object:     object,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	add(catalog.OntologySource, d.Source)
	add(catalog.OntologyTitle, d.Title)
	add(catalog.OntologyDescription, d.Description)
	add(catalog.OntologyPURL, d.PURL)
	add(catalog.OntologyVersionIRI, d.VersionIRI)
	add(catalog.OntologyVersion, d.Version())
	add(catalog.OntologyRoot, d.Root)
	add(catalog.LoadStatements, e.Statements)
	add(catalog.LoadFlattened, e.Emitted)
	add(catalog.LoadUnmatched, e.Unmatched)
	add(catalog.LoadRun, runID)
	return triples
}
