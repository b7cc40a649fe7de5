package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --vector-store
// on "ragline serve", "ragline index" and "ragline retrieve").
type Flag struct {
	// Name is the long flag name (e.g. "vector-store").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "vector_store.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen       = "api-listen"
	FlagVectorStoreProv = "vector-store"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagVectorMetric    = "metric"
	FlagCollection      = "collection"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagTopK            = "top-k"
	FlagThreshold       = "threshold"
	FlagMaxResults      = "max-results"
	FlagGenerationModel = "generation-model"
	FlagIngestWorkers   = "workers"
	FlagEventBrokers    = "brokers"
)

// Registry holds every shared flag.
var Registry = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagVectorStoreProv: {Name: "vector-store", ViperKey: "vector_store.provider", Description: "Vector store provider (sqlite, pgvector, chroma, qdrant, memory)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store path, DSN or URL"},
	FlagVectorMetric:    {Name: "metric", ViperKey: "vector_store.metric", Description: "Similarity metric of the index (l2, cosine, ip)"},
	FlagCollection:      {Name: "collection", ViperKey: "vector_store.collection", Description: "Table or collection holding the chunks"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (hashing, ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector dimensions"},
	FlagTopK:            {Name: "top-k", Shorthand: "k", ViperKey: "retrieval.k", Description: "Number of nearest neighbors fetched before filtering"},
	FlagThreshold:       {Name: "threshold", ViperKey: "retrieval.similarity_threshold", Description: "Minimum similarity in [0, 1]"},
	FlagMaxResults:      {Name: "max-results", Shorthand: "n", ViperKey: "retrieval.max_results", Description: "Maximum number of results returned"},
	FlagGenerationModel: {Name: "model", ViperKey: "generation.model", Description: "Answer generation model"},
	FlagIngestWorkers:   {Name: "workers", ViperKey: "ingest.workers", Description: "Number of concurrent indexing workers"},
	FlagEventBrokers:    {Name: "brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers for document events"},
}

// StoreFlags are the flags every command that opens the index registers.
var StoreFlags = []string{
	FlagVectorStoreProv,
	FlagVectorStoreTgt,
	FlagVectorMetric,
	FlagCollection,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDims,
}

// RetrievalFlags are the per query knobs.
var RetrievalFlags = []string{
	FlagTopK,
	FlagThreshold,
	FlagMaxResults,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().StringP(def.Name, def.Shorthand, defaultString(def.ViperKey), def.Description)
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().UintP(def.Name, def.Shorthand, defaults().GetUint(def.ViperKey), def.Description)
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().IntP(def.Name, def.Shorthand, defaults().GetInt(def.ViperKey), def.Description)
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, key string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().Float64P(def.Name, def.Shorthand, defaults().GetFloat64(def.ViperKey), def.Description)
}

// AddStoreFlags registers StoreFlags on cmd.
func AddStoreFlags(cmd *cobra.Command) {
	for _, key := range StoreFlags {
		if key == FlagEmbeddingDims {
			AddUintFlag(cmd, Registry, key)
			continue
		}
		AddStringFlag(cmd, Registry, key)
	}
}

// AddRetrievalFlags registers RetrievalFlags on cmd.
func AddRetrievalFlags(cmd *cobra.Command) {
	AddIntFlag(cmd, Registry, FlagTopK)
	AddFloatFlag(cmd, Registry, FlagThreshold)
	AddIntFlag(cmd, Registry, FlagMaxResults)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// Resolve loads the config visible to cmd: defaults, config.toml, RAGLINE_
// environment variables and finally the given registered flags.
func Resolve(cmd *cobra.Command, registryKeys ...string) (*Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	BindRegisteredFlags(v, cmd, Registry, registryKeys)

	return FromViper(v)
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaults().GetString(viperKey)
}
