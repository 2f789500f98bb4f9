// Package config provides configuration loading and management for ontokn.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in graph.backend.
const (
	BackendMemory   = "memory"
	BackendArangoDB = "arangodb"
	BackendNeo4j    = "neo4j"
	BackendNATSKV   = "natskv"
)

// Dump formats accepted in output.dump_format.
const (
	DumpNTriples = "ntriples"
	DumpTurtle   = "turtle"
)

// Config represents the complete ontokn configuration
type Config struct {
	Documents     DocumentsConfig     `yaml:"documents"`
	Vocabularies  VocabulariesConfig  `yaml:"vocabularies"`
	Normalization NormalizationConfig `yaml:"normalization"`
	Processing    ProcessingConfig    `yaml:"processing"`
	Graph         GraphConfig         `yaml:"graph"`
	Output        OutputConfig        `yaml:"output"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	NATS          NATSConfig          `yaml:"nats"`
	Watch         WatchConfig         `yaml:"watch"`
	Download      DownloadConfig      `yaml:"download"`
}

// DocumentsConfig selects the ontology documents of a run
type DocumentsConfig struct {
	// Dir is the directory holding the ontology documents
	Dir string `yaml:"dir"`
	// Include and Exclude are doublestar patterns relative to Dir
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Relations is the source token of the relations document (e.g. "ro")
	Relations string `yaml:"relations"`
	// AssembleRelations also folds the relations document into the graph
	AssembleRelations bool `yaml:"assemble_relations"`
}

// VocabulariesConfig holds the vocabulary allow-list
type VocabulariesConfig struct {
	Allow []string `yaml:"allow"`
}

// NormalizationConfig maps source tokens and relation labels to their
// canonical edge attribute values
type NormalizationConfig struct {
	Sources map[string]string `yaml:"sources"`
	Labels  map[string]string `yaml:"labels"`
}

// ProcessingConfig sizes the worker pools
type ProcessingConfig struct {
	// Workers bounds the documents decoded and flattened concurrently
	Workers int `yaml:"workers"`
	// Shards is the number of assembler shards
	Shards int `yaml:"shards"`
}

// GraphConfig names the load target
type GraphConfig struct {
	Backend  string `yaml:"backend"`
	Database string `yaml:"database"`
	Name     string `yaml:"name"`
}

// OutputConfig configures side-channel outputs
type OutputConfig struct {
	// Dir receives the report files
	Dir string `yaml:"dir"`
	// DumpDir enables the per-document statement dump when set
	DumpDir    string `yaml:"dump_dir"`
	DumpFormat string `yaml:"dump_format"`
}

// MetricsConfig configures run metrics export
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path (empty = disabled)
	Textfile string `yaml:"textfile"`
	// Pushgateway is a Pushgateway URL (empty = disabled)
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = catalog publication disabled)
	URL string `yaml:"url"`
	// Subject receives catalog entities
	Subject string `yaml:"subject"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is how long the documents directory must stay quiet
	Debounce time.Duration `yaml:"debounce"`
}

// DownloadConfig configures the ontology downloader
type DownloadConfig struct {
	Dir       string        `yaml:"dir"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	PURLs     []string      `yaml:"purls"`
}

// DefaultAllow is the default vocabulary allow-list.
var DefaultAllow = []string{
	"BGS", "BMC", "CHEBI", "CHEMBL", "CL", "CS", "CSD", "GO", "GS", "HP",
	"HsapDv", "MONDO", "MmusDv", "NCBITaxon", "NCT", "Orphanet", "PATO", "PR",
	"PUB", "RS", "SO", "UBERON",
}

// DefaultPURLs are the OBO documents fetched by the downloader.
var DefaultPURLs = []string{
	"http://purl.obolibrary.org/obo/cl.owl",
	"http://purl.obolibrary.org/obo/ro.owl",
	"http://purl.obolibrary.org/obo/go.owl",
	"http://purl.obolibrary.org/obo/uberon/uberon-base.owl",
	"http://purl.obolibrary.org/obo/ncbitaxon/subsets/taxslim.owl",
	"http://purl.obolibrary.org/obo/mondo/mondo-simple.owl",
	"http://purl.obolibrary.org/obo/hp.owl",
	"http://purl.obolibrary.org/obo/pato.owl",
	"http://purl.obolibrary.org/obo/hsapdv.owl",
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Dir:       "data/obo",
			Include:   []string{"*.owl", "*.owl.gz", "*.ttl", "*.nt"},
			Exclude:   []string{".archive/**", "*-new.*"},
			Relations: "ro",
		},
		Vocabularies: VocabulariesConfig{
			Allow: append([]string(nil), DefaultAllow...),
		},
		Normalization: NormalizationConfig{
			Sources: map[string]string{
				"mondo-simple": "MONDO",
				"taxslim":      "NCBITAXON",
				"go-plus":      "GO",
				"uberon-base":  "UBERON",
			},
			Labels: map[string]string{
				"subClassOf":             "SUB_CLASS_OF",
				"disjointWith":           "DISJOINT_WITH",
				"crossSpeciesExactMatch": "CROSS_SPECIES_EXACT_MATCH",
				"exactMatch":             "EXACT_MATCH",
				"equivalentClass":        "EQUIVALENT_CLASS",
				"seeAlso":                "SEE_ALSO",
			},
		},
		Processing: ProcessingConfig{
			Workers: 4,
			Shards:  8,
		},
		Graph: GraphConfig{
			Backend:  BackendArangoDB,
			Database: "Cell-KN-Ontologies",
			Name:     "KN-Ontologies-v2.0",
		},
		Output: OutputConfig{
			Dir:        "data/obo",
			DumpFormat: DumpNTriples,
		},
		Metrics: MetricsConfig{
			Job: "ontokn",
		},
		NATS: NATSConfig{
			Subject: "graph.ingest.entity",
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Download: DownloadConfig{
			Dir:       "data/obo",
			Timeout:   10 * time.Minute,
			UserAgent: "ontokn/0.1",
			PURLs:     append([]string(nil), DefaultPURLs...),
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Documents.Dir == "" {
		return fmt.Errorf("documents.dir is required")
	}
	if c.Documents.Relations == "" {
		return fmt.Errorf("documents.relations is required")
	}
	if len(c.Vocabularies.Allow) == 0 {
		return fmt.Errorf("vocabularies.allow must not be empty")
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1")
	}
	if c.Processing.Shards < 1 {
		return fmt.Errorf("processing.shards must be at least 1")
	}
	switch c.Graph.Backend {
	case BackendMemory, BackendArangoDB, BackendNeo4j, BackendNATSKV:
	default:
		return fmt.Errorf("graph.backend %q is not one of memory, arangodb, neo4j, natskv", c.Graph.Backend)
	}
	if c.Graph.Database == "" || c.Graph.Name == "" {
		return fmt.Errorf("graph.database and graph.name are required")
	}
	switch c.Output.DumpFormat {
	case DumpNTriples, DumpTurtle:
	default:
		return fmt.Errorf("output.dump_format %q is not one of ntriples, turtle", c.Output.DumpFormat)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Documents
	if other.Documents.Dir != "" {
		c.Documents.Dir = other.Documents.Dir
	}
	if len(other.Documents.Include) > 0 {
		c.Documents.Include = other.Documents.Include
	}
	if len(other.Documents.Exclude) > 0 {
		c.Documents.Exclude = other.Documents.Exclude
	}
	if other.Documents.Relations != "" {
		c.Documents.Relations = other.Documents.Relations
	}
	if other.Documents.AssembleRelations {
		c.Documents.AssembleRelations = true
	}

	if len(other.Vocabularies.Allow) > 0 {
		c.Vocabularies.Allow = other.Vocabularies.Allow
	}

	// Normalization tables merge entry by entry
	c.Normalization.Sources = mergeTable(c.Normalization.Sources, other.Normalization.Sources)
	c.Normalization.Labels = mergeTable(c.Normalization.Labels, other.Normalization.Labels)

	if other.Processing.Workers != 0 {
		c.Processing.Workers = other.Processing.Workers
	}
	if other.Processing.Shards != 0 {
		c.Processing.Shards = other.Processing.Shards
	}

	// Graph
	if other.Graph.Backend != "" {
		c.Graph.Backend = other.Graph.Backend
	}
	if other.Graph.Database != "" {
		c.Graph.Database = other.Graph.Database
	}
	if other.Graph.Name != "" {
		c.Graph.Name = other.Graph.Name
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.DumpDir != "" {
		c.Output.DumpDir = other.Output.DumpDir
	}
	if other.Output.DumpFormat != "" {
		c.Output.DumpFormat = other.Output.DumpFormat
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
	if other.Metrics.Pushgateway != "" {
		c.Metrics.Pushgateway = other.Metrics.Pushgateway
	}
	if other.Metrics.Job != "" {
		c.Metrics.Job = other.Metrics.Job
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Download
	if other.Download.Dir != "" {
		c.Download.Dir = other.Download.Dir
	}
	if other.Download.Timeout != 0 {
		c.Download.Timeout = other.Download.Timeout
	}
	if other.Download.UserAgent != "" {
		c.Download.UserAgent = other.Download.UserAgent
	}
	if len(other.Download.PURLs) > 0 {
		c.Download.PURLs = other.Download.PURLs
	}
}

func mergeTable(base, other map[string]string) map[string]string {
	if len(other) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(other))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
