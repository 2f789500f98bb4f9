package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	semconfig "github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/natsclient"
)

// CatalogStream is the JetStream stream carrying catalog entities.
const CatalogStream = "ONTOKN_CATALOG"

// Connect opens a semstreams NATS client and ensures the catalog stream
// exists for subject.
func Connect(ctx context.Context, url, subject string, logger *slog.Logger) (*natsclient.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName("ontokn"),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	if subject == "" {
		subject = GraphIngestSubject
	}
	streams := semconfig.NewStreamsManager(client, logger)
	if err := streams.EnsureStreams(ctx, &semconfig.Config{
		Streams: semconfig.StreamConfigs{
			CatalogStream: semconfig.StreamConfig{
				Subjects: []string{subject},
				MaxAge:   "168h",
				Storage:  "file",
				Replicas: 1,
			},
		},
	}); err != nil {
		return nil, fmt.Errorf("ensure streams: %w", err)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides guidance when the NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Start a NATS server with JetStream enabled (nats-server -js), or unset
nats.url to skip catalog publication.`, err, url)
	}
	return fmt.Errorf("NATS connection failed: %w", err)
}
