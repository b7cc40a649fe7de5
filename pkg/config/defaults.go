package config

const (
	defaultVectorProvider   = "sqlite"
	defaultVectorMetric     = "l2"
	defaultVectorCollection = "document_chunks"

	defaultEmbeddingProvider   = "hashing"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384
	defaultOllamaTarget        = "http://localhost:11434"
	defaultQueryCacheSize      = 1024

	defaultChunkSize    = 1000
	defaultChunkOverlap = 200

	defaultK                   = 10
	defaultSimilarityThreshold = 0.3
	defaultMaxResults          = 5
	defaultMinThresholdResults = 3
	defaultMinCategoryMatches  = 2
	defaultRetrievalTimeout    = "10s"
	defaultInnerProductCutoff  = -6.0

	defaultCooccurrenceBonus = 5
	defaultLeadBonus         = 10
	defaultLeadChars         = 100
	defaultExactWordWeight   = 2

	defaultGenerationProvider = "ollama"
	defaultGenerationModel    = "gemma3:12b"

	defaultAPIListen = ":8080"

	defaultEventsTopic = "ragline.documents"

	defaultIngestWorkers   = 3
	defaultIngestQueueSize = 256

	defaultLogMaxSizeMB = 50
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Metric:     defaultVectorMetric,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:       defaultEmbeddingProvider,
			Target:         defaultOllamaTarget,
			Model:          defaultEmbeddingModel,
			Dimensions:     defaultEmbeddingDimensions,
			QueryCacheSize: defaultQueryCacheSize,
		},
		Chunking: ChunkingConfig{
			Size:    defaultChunkSize,
			Overlap: defaultChunkOverlap,
		},
		Retrieval: RetrievalConfig{
			K:                   defaultK,
			SimilarityThreshold: defaultSimilarityThreshold,
			MaxResults:          defaultMaxResults,
			MinThresholdResults: defaultMinThresholdResults,
			MinCategoryMatches:  defaultMinCategoryMatches,
			Timeout:             defaultRetrievalTimeout,
			InnerProductCutoff:  defaultInnerProductCutoff,
		},
		Classifier: ClassifierConfig{
			CooccurrenceBonus: defaultCooccurrenceBonus,
			LeadBonus:         defaultLeadBonus,
			LeadChars:         defaultLeadChars,
			ExactWordWeight:   defaultExactWordWeight,
		},
		Generation: GenerationConfig{
			Provider: defaultGenerationProvider,
			Model:    defaultGenerationModel,
			Target:   defaultOllamaTarget,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
		Log: LogConfig{
			MaxSizeMB: defaultLogMaxSizeMB,
		},
	}
}
