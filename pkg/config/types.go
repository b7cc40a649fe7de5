package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent ragline configuration stored as config.toml
// in the .ragline/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Classifier  ClassifierConfig  `toml:"classifier"`
	Generation  GenerationConfig  `toml:"generation"`
	API         APIConfig         `toml:"api"`
	Events      EventsConfig      `toml:"events"`
	Ingest      IngestConfig      `toml:"ingest"`
	Log         LogConfig         `toml:"log"`
}

// VectorStoreConfig holds vector store settings. Target is a file path for
// sqlite, a DSN for pgvector and a URL or host:port for chroma and qdrant.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Metric     string `toml:"metric,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider       string `toml:"provider,omitempty"`
	Target         string `toml:"target,omitempty"`
	Model          string `toml:"model,omitempty"`
	Dimensions     uint   `toml:"dimensions,omitempty"`
	QueryCacheSize int    `toml:"query_cache_size"`
}

// ChunkingConfig holds chunker settings in characters.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// RetrievalConfig holds the query path settings.
type RetrievalConfig struct {
	K                   int     `toml:"k"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxResults          int     `toml:"max_results"`
	MinThresholdResults int     `toml:"min_threshold_results"`
	MinCategoryMatches  int     `toml:"min_category_matches"`
	Timeout             string  `toml:"timeout,omitempty"`
	InnerProductCutoff  float64 `toml:"inner_product_cutoff"`
}

// TimeoutDuration parses Timeout.
func (r RetrievalConfig) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for retrieval.timeout: %w", err)
	}
	return d, nil
}

// ClassifierConfig holds the category scoring constants.
type ClassifierConfig struct {
	CooccurrenceBonus int `toml:"cooccurrence_bonus"`
	LeadBonus         int `toml:"lead_bonus"`
	LeadChars         int `toml:"lead_chars"`
	ExactWordWeight   int `toml:"exact_word_weight"`
}

// GenerationConfig holds the answer model settings.
type GenerationConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds document event publishing settings. Empty Brokers
// disables publishing.
type EventsConfig struct {
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// IngestConfig holds the file ingestion worker pool settings.
type IngestConfig struct {
	Workers   uint `toml:"workers"`
	QueueSize uint `toml:"queue_size"`
}

// LogConfig holds the optional rotating log file settings.
type LogConfig struct {
	File      string `toml:"file,omitempty"`
	MaxSizeMB int    `toml:"max_size_mb"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.metric":     stringKey(func(c *Config) *string { return &c.VectorStore.Metric }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.api_key":    stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),

	"embedding.provider":         stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":           stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":            stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":       uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.query_cache_size": intKey("embedding.query_cache_size", func(c *Config) *int { return &c.Embedding.QueryCacheSize }),

	"chunking.size":    intKey("chunking.size", func(c *Config) *int { return &c.Chunking.Size }),
	"chunking.overlap": intKey("chunking.overlap", func(c *Config) *int { return &c.Chunking.Overlap }),

	"retrieval.k":                     intKey("retrieval.k", func(c *Config) *int { return &c.Retrieval.K }),
	"retrieval.similarity_threshold":  floatKey("retrieval.similarity_threshold", func(c *Config) *float64 { return &c.Retrieval.SimilarityThreshold }),
	"retrieval.max_results":           intKey("retrieval.max_results", func(c *Config) *int { return &c.Retrieval.MaxResults }),
	"retrieval.min_threshold_results": intKey("retrieval.min_threshold_results", func(c *Config) *int { return &c.Retrieval.MinThresholdResults }),
	"retrieval.min_category_matches":  intKey("retrieval.min_category_matches", func(c *Config) *int { return &c.Retrieval.MinCategoryMatches }),
	"retrieval.inner_product_cutoff":  floatKey("retrieval.inner_product_cutoff", func(c *Config) *float64 { return &c.Retrieval.InnerProductCutoff }),
	"retrieval.timeout": {
		get: func(c *Config) string { return c.Retrieval.Timeout },
		set: func(c *Config, v string) error {
			if _, err := (RetrievalConfig{Timeout: v}).TimeoutDuration(); err != nil {
				return err
			}
			c.Retrieval.Timeout = v
			return nil
		},
	},

	"classifier.cooccurrence_bonus": intKey("classifier.cooccurrence_bonus", func(c *Config) *int { return &c.Classifier.CooccurrenceBonus }),
	"classifier.lead_bonus":         intKey("classifier.lead_bonus", func(c *Config) *int { return &c.Classifier.LeadBonus }),
	"classifier.lead_chars":         intKey("classifier.lead_chars", func(c *Config) *int { return &c.Classifier.LeadChars }),
	"classifier.exact_word_weight":  intKey("classifier.exact_word_weight", func(c *Config) *int { return &c.Classifier.ExactWordWeight }),

	"generation.provider": stringKey(func(c *Config) *string { return &c.Generation.Provider }),
	"generation.model":    stringKey(func(c *Config) *string { return &c.Generation.Model }),
	"generation.target":   stringKey(func(c *Config) *string { return &c.Generation.Target }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"events.brokers": stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":   stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"ingest.workers":    uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size": uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),

	"log.file":        stringKey(func(c *Config) *string { return &c.Log.File }),
	"log.max_size_mb": intKey("log.max_size_mb", func(c *Config) *int { return &c.Log.MaxSizeMB }),
}
