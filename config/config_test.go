package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ro", cfg.Documents.Relations)
	assert.Contains(t, cfg.Vocabularies.Allow, "CL")
	assert.Contains(t, cfg.Vocabularies.Allow, "NCBITaxon")
	assert.NotContains(t, cfg.Vocabularies.Allow, "BFO")
	assert.Equal(t, "SUB_CLASS_OF", cfg.Normalization.Labels["subClassOf"])
	assert.Equal(t, "NCBITAXON", cfg.Normalization.Sources["taxslim"])
	assert.Equal(t, BackendArangoDB, cfg.Graph.Backend)
	assert.Equal(t, "Cell-KN-Ontologies", cfg.Graph.Database)
	assert.Equal(t, "KN-Ontologies-v2.0", cfg.Graph.Name)
	assert.Len(t, cfg.Download.PURLs, 9)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigIsolated(t *testing.T) {
	a := DefaultConfig()
	a.Vocabularies.Allow[0] = "XX"
	a.Normalization.Labels["subClassOf"] = "IS_A"

	b := DefaultConfig()
	assert.Equal(t, "BGS", b.Vocabularies.Allow[0])
	assert.Equal(t, "SUB_CLASS_OF", b.Normalization.Labels["subClassOf"])
	assert.Equal(t, "BGS", DefaultAllow[0])
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"memory backend", func(c *Config) { c.Graph.Backend = BackendMemory }, false},
		{"natskv backend", func(c *Config) { c.Graph.Backend = BackendNATSKV }, false},
		{"turtle dump", func(c *Config) { c.Output.DumpFormat = DumpTurtle }, false},
		{"missing documents dir", func(c *Config) { c.Documents.Dir = "" }, true},
		{"missing relations", func(c *Config) { c.Documents.Relations = "" }, true},
		{"empty allow-list", func(c *Config) { c.Vocabularies.Allow = nil }, true},
		{"zero workers", func(c *Config) { c.Processing.Workers = 0 }, true},
		{"zero shards", func(c *Config) { c.Processing.Shards = 0 }, true},
		{"unknown backend", func(c *Config) { c.Graph.Backend = "postgres" }, true},
		{"missing graph name", func(c *Config) { c.Graph.Name = "" }, true},
		{"unknown dump format", func(c *Config) { c.Output.DumpFormat = "jsonld" }, true},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
documents:
  dir: /data/ontologies
  relations: ro-core
  assemble_relations: true
vocabularies:
  allow: [CL, GO]
normalization:
  labels:
    part_of: PART_OF
processing:
  workers: 2
graph:
  backend: neo4j
  database: kn
  name: ontologies
watch:
  debounce: 500ms
download:
  timeout: 1m
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/data/ontologies", cfg.Documents.Dir)
	assert.Equal(t, "ro-core", cfg.Documents.Relations)
	assert.True(t, cfg.Documents.AssembleRelations)
	assert.Equal(t, []string{"CL", "GO"}, cfg.Vocabularies.Allow)
	assert.Equal(t, "PART_OF", cfg.Normalization.Labels["part_of"])
	assert.Equal(t, "SUB_CLASS_OF", cfg.Normalization.Labels["subClassOf"], "defaults kept alongside file entries")
	assert.Equal(t, 2, cfg.Processing.Workers)
	assert.Equal(t, 8, cfg.Processing.Shards)
	assert.Equal(t, BackendNeo4j, cfg.Graph.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, time.Minute, cfg.Download.Timeout)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("graph: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Graph:         GraphConfig{Database: "override-db"},
		Normalization: NormalizationConfig{Sources: map[string]string{"cl": "CELL"}},
		NATS:          NATSConfig{URL: "nats://localhost:4222"},
	})

	assert.Equal(t, "override-db", base.Graph.Database)
	assert.Equal(t, "KN-Ontologies-v2.0", base.Graph.Name, "unset fields keep their value")
	assert.Equal(t, "CELL", base.Normalization.Sources["cl"])
	assert.Equal(t, "MONDO", base.Normalization.Sources["mondo-simple"])
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
	assert.Equal(t, "graph.ingest.entity", base.NATS.Subject)

	base.Merge(nil)
	assert.Equal(t, "override-db", base.Graph.Database)
}

func TestConfigSaveToFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Graph.Name = "saved-graph"
	cfg.Watch.Debounce = 5 * time.Second
	require.NoError(t, cfg.SaveToFile(configPath))

	loaded, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "saved-graph", loaded.Graph.Name)
	assert.Equal(t, 5*time.Second, loaded.Watch.Debounce)
	assert.Equal(t, cfg.Vocabularies.Allow, loaded.Vocabularies.Allow)
}
