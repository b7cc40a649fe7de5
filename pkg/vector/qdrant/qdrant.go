// Package qdrant provides a vector driver backed by a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk embeddings.
	DefaultCollectionName = "document_chunks"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334
)

// Driver implements vector.Driver on a Qdrant collection.
type Driver struct {
	client     *qdrant.Client
	collection string
	dims       uint
	metric     vector.Metric
	model      string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant host name.
	Host string

	// Port is the gRPC port. Defaults to DefaultPort.
	Port int

	// APIKey authenticates against Qdrant Cloud or secured deployments.
	APIKey string

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is the vector size of the collection.
	Dimensions uint

	// Metric selects the collection distance. Defaults to vector.MetricL2.
	Metric vector.Metric

	// EmbeddingModel is enforced on every upsert.
	EmbeddingModel string
}

func distance(m vector.Metric) qdrant.Distance {
	switch m {
	case vector.MetricCosine:
		return qdrant.Distance_Cosine
	case vector.MetricInnerProduct:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Euclid
	}
}

func metricOf(d qdrant.Distance) vector.Metric {
	switch d {
	case qdrant.Distance_Cosine:
		return vector.MetricCosine
	case qdrant.Distance_Dot:
		return vector.MetricInnerProduct
	case qdrant.Distance_Euclid:
		return vector.MetricL2
	default:
		return vector.Metric(d.String())
	}
}

// NewDriver connects to Qdrant and creates the collection when missing. An
// existing collection must match the configured metric and dimension.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, &vector.ConfigurationError{Field: "host", Reason: "qdrant host is required"}
	}

	if c.Dimensions == 0 {
		return nil, &vector.ConfigurationError{Field: "dimensions", Reason: "must be greater than 0"}
	}

	metric := c.Metric
	if metric == "" {
		metric = vector.MetricL2
	}
	if !metric.Valid() {
		return nil, &vector.ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q", metric)}
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		client:     client,
		collection: collection,
		dims:       c.Dimensions,
		metric:     metric,
		model:      c.EmbeddingModel,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", collection),
		zap.String("metric", string(metric)),
	)

	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return vector.ContextError(ctx, fmt.Errorf("%w: checking collection: %w", vector.ErrConnection, err))
	}

	if !exists {
		err := d.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: d.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(d.dims),
				Distance: distance(d.metric),
			}),
		})
		if err != nil {
			return fmt.Errorf("%w: creating collection %s: %w", vector.ErrConnection, d.collection, err)
		}

		_, err = d.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: d.collection,
			FieldName:      "document_id",
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("%w: indexing document_id: %w", vector.ErrConnection, err)
		}
		return nil
	}

	info, err := d.client.GetCollectionInfo(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: reading collection %s: %w", vector.ErrConnection, d.collection, err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return &vector.ConfigurationError{
			Field:  "collection",
			Reason: fmt.Sprintf("collection %s does not use a single unnamed vector", d.collection),
		}
	}

	if got := metricOf(params.GetDistance()); got != d.metric {
		return &vector.MetricMismatchError{Index: got, Query: d.metric}
	}
	if uint(params.GetSize()) != d.dims {
		return &vector.DimensionMismatchError{Expected: uint(params.GetSize()), Got: d.dims}
	}

	return nil
}

// pointID derives a stable UUID for a chunk so re-indexing overwrites in place.
func pointID(documentID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(documentID+"#"+strconv.Itoa(index))).String()
}

func documentFilter(documentID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("document_id", documentID),
		},
	}
}

// Upsert replaces every chunk of the documents in chunks. Qdrant has no
// multi-request transactions, so the batch is validated before any write.
func (d *Driver) Upsert(ctx context.Context, chunks []vector.EmbeddedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := vector.CheckBatch(d.dims, d.model, chunks); err != nil {
		return 0, err
	}

	for _, id := range vector.DocumentIDs(chunks) {
		if _, err := d.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("clearing previous chunks of %s: %w", id, err)
		}
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(c.DocumentID, c.ChunkIndex)),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id":     c.DocumentID,
				"title":           c.Title,
				"content":         c.Content,
				"chunk_index":     c.ChunkIndex,
				"total_chunks":    c.TotalChunks,
				"embedding_model": c.EmbeddingModel,
			}),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("upserting points: %w", err))
	}

	d.logger.Debug("upserted chunks to qdrant",
		zap.Int("count", len(chunks)),
	)

	return len(chunks), nil
}

// Search queries the collection. Qdrant reports Euclidean distance for Euclid
// and similarity for Cosine and Dot, which already match the raw scores.
func (d *Driver) Search(ctx context.Context, query []float32, k int, metric vector.Metric) ([]vector.ScoredCandidate, error) {
	if err := vector.CheckSearch(d.metric, d.dims, query, k, metric); err != nil {
		return nil, err
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, vector.ContextError(ctx, fmt.Errorf("querying points: %w", err))
	}

	results := make([]vector.ScoredCandidate, 0, len(points))
	for _, p := range points {
		results = append(results, vector.ScoredCandidate{
			Chunk:    chunkFromPayload(p.GetPayload()),
			RawScore: float64(p.GetScore()),
			Metric:   d.metric,
		})
	}

	vector.SortCandidates(results)

	d.logger.Debug("queried qdrant",
		zap.Int("results", len(results)),
	)

	return results, nil
}

func chunkFromPayload(payload map[string]*qdrant.Value) vector.Chunk {
	return vector.Chunk{
		DocumentID:  payload["document_id"].GetStringValue(),
		Title:       payload["title"].GetStringValue(),
		Content:     payload["content"].GetStringValue(),
		ChunkIndex:  int(payload["chunk_index"].GetIntegerValue()),
		TotalChunks: int(payload["total_chunks"].GetIntegerValue()),
	}
}

// Delete removes every chunk of documentID.
func (d *Driver) Delete(ctx context.Context, documentID string) (int, error) {
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Filter:         documentFilter(documentID),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("counting chunks of %s: %w", documentID, err))
	}

	if n == 0 {
		return 0, nil
	}

	_, err = d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
	})
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("deleting chunks of %s: %w", documentID, err))
	}

	d.logger.Debug("deleted document from qdrant",
		zap.String("document_id", documentID),
		zap.Uint64("chunks", n),
	)

	return int(n), nil
}

func (d *Driver) Metric() vector.Metric { return d.metric }

func (d *Driver) Dimensions() uint { return d.dims }

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
