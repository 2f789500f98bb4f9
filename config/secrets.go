package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Secrets holds graph-store credentials and endpoints read from the
// environment. They never appear in YAML files.
type Secrets struct {
	ArangoHost     string `env:"ARANGO_DB_HOST" envDefault:"localhost"`
	ArangoPort     int    `env:"ARANGO_DB_PORT" envDefault:"8529"`
	ArangoUser     string `env:"ARANGO_DB_USER" envDefault:"root"`
	ArangoPassword string `env:"ARANGO_DB_PASSWORD"`

	Neo4jURL      string `env:"NEO4J_URL" envDefault:"neo4j://localhost:7687"`
	Neo4jUser     string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string `env:"NEO4J_PASSWORD"`

	NATSURL string `env:"NATS_URL"`
}

// LoadSecrets reads the optional dotenv files, then parses the environment.
// Variables already set in the environment win over dotenv values.
func LoadSecrets(dotenvFiles ...string) (*Secrets, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	s := &Secrets{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return s, nil
}

// ArangoEndpoint returns the HTTP endpoint of the ArangoDB server.
func (s *Secrets) ArangoEndpoint() string {
	return "http://" + net.JoinHostPort(s.ArangoHost, strconv.Itoa(s.ArangoPort))
}

// Apply copies environment overrides into cfg.
func (s *Secrets) Apply(cfg *Config) {
	if s.NATSURL != "" {
		cfg.NATS.URL = s.NATSURL
	}
}
