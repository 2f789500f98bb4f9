package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/ontokn/config"
	"github.com/c360studio/ontokn/storage"
	"github.com/c360studio/ontokn/storage/arangodb"
	"github.com/c360studio/ontokn/storage/natskv"
	"github.com/c360studio/ontokn/storage/neo4j"
)

// OpenClient connects to the graph store named by cfg.Graph.Backend.
// Credentials come from secrets.
func OpenClient(ctx context.Context, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) (storage.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	switch cfg.Graph.Backend {
	case config.BackendMemory:
		return storage.NewMemoryClient(logger), nil

	case config.BackendArangoDB:
		c, err := arangodb.New(arangodb.Config{
			Endpoints: []string{secrets.ArangoEndpoint()},
			User:      secrets.ArangoUser,
			Password:  secrets.ArangoPassword,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open arangodb client: %w", err)
		}
		return c, nil

	case config.BackendNeo4j:
		c, err := neo4j.New(ctx, neo4j.Config{
			URL:      secrets.Neo4jURL,
			User:     secrets.Neo4jUser,
			Password: secrets.Neo4jPassword,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open neo4j client: %w", err)
		}
		return c, nil

	case config.BackendNATSKV:
		url := cfg.NATS.URL
		if url == "" {
			url = nats.DefaultURL
		}
		c, err := natskv.Connect(url, logger)
		if err != nil {
			return nil, fmt.Errorf("open natskv client: %w", err)
		}
		return c, nil

	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownBackend, cfg.Graph.Backend)
	}
}
