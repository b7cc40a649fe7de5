// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing chunk embeddings.
	DefaultCollectionName = "document_chunks"

	// DefaultMaxRetries is the number of attempts made to reach Chroma at startup.
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the first wait between startup attempts.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the wait between startup attempts.
	DefaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

	metaSpace      = "hnsw:space"
	metaDimensions = "ragline:dimensions"
	metaModel      = "ragline:embedding_model"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	dims           uint
	metric         vector.Metric
	model          string
	httpClient     *http.Client
	logger         *zap.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the vector dimension of the collection.
	Dimensions uint

	// Metric selects the collection's hnsw:space. Defaults to vector.MetricL2.
	Metric vector.Metric

	// EmbeddingModel is recorded in the collection metadata and enforced on upsert.
	EmbeddingModel string

	// MaxRetries bounds the startup attempts while Chroma is still coming up.
	MaxRetries uint

	// RetryDelay is the initial delay between startup attempts.
	RetryDelay time.Duration

	// MaxRetryDelay caps the exponential delay between startup attempts.
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver. The collection is fetched or
// created with retries so the driver can start alongside a booting Chroma.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, &vector.ConfigurationError{Field: "url", Reason: "chroma URL is required"}
	}

	if c.Dimensions == 0 {
		return nil, &vector.ConfigurationError{Field: "dimensions", Reason: "must be greater than 0"}
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	metric := c.Metric
	if metric == "" {
		metric = vector.MetricL2
	}
	if !metric.Valid() {
		return nil, &vector.ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q", metric)}
	}

	d := &Driver{
		baseURL:        strings.TrimRight(c.URL, "/"),
		collectionName: collectionName,
		dims:           c.Dimensions,
		metric:         metric,
		model:          c.EmbeddingModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	maxRetries := c.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryDelay
	if b.InitialInterval == 0 {
		b.InitialInterval = DefaultRetryDelay
	}
	b.MaxInterval = c.MaxRetryDelay
	if b.MaxInterval == 0 {
		b.MaxInterval = DefaultMaxRetryDelay
	}

	attempts := 0
	collection, err := backoff.Retry(context.Background(), func() (*chromaCollection, error) {
		attempts++
		col, err := d.getOrCreateCollection(context.Background())
		if err != nil {
			logger.Debug("chroma not ready",
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
		}
		return col, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(maxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q after %d attempts: %w", collectionName, attempts, err)
	}

	if err := d.checkCollection(collection); err != nil {
		return nil, err
	}
	d.collectionID = collection.ID

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection", collectionName),
		zap.String("collection_id", collection.ID),
		zap.String("metric", string(metric)),
	)

	return d, nil
}

func (d *Driver) space() string {
	switch d.metric {
	case vector.MetricCosine:
		return "cosine"
	case vector.MetricInnerProduct:
		return "ip"
	default:
		return "l2"
	}
}

func (d *Driver) getOrCreateCollection(ctx context.Context) (*chromaCollection, error) {
	var collection chromaCollection

	status, err := d.do(ctx, http.MethodGet, collectionsPath+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return &collection, nil
	}
	if status != http.StatusNotFound && status != http.StatusBadRequest {
		return nil, err
	}

	meta := map[string]any{
		metaSpace:      d.space(),
		metaDimensions: d.dims,
	}
	if d.model != "" {
		meta[metaModel] = d.model
	}

	if _, err := d.do(ctx, http.MethodPost, collectionsPath, chromaCreateRequest{
		Name:        d.collectionName,
		Metadata:    meta,
		GetOrCreate: true,
	}, &collection); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &collection, nil
}

// checkCollection compares the settings recorded on an existing collection.
func (d *Driver) checkCollection(c *chromaCollection) error {
	if c.Metadata == nil {
		return nil
	}

	if space, ok := c.Metadata[metaSpace].(string); ok && space != d.space() {
		return &vector.MetricMismatchError{Index: spaceMetric(space), Query: d.metric}
	}

	if dims, ok := toInt(c.Metadata[metaDimensions]); ok && uint(dims) != d.dims {
		return &vector.DimensionMismatchError{Expected: uint(dims), Got: d.dims}
	}

	if model, ok := c.Metadata[metaModel].(string); ok && d.model != "" && model != d.model {
		return fmt.Errorf("%w: collection %s holds %q vectors, configured model is %q",
			vector.ErrModelMismatch, d.collectionName, model, d.model)
	}

	return nil
}

func spaceMetric(space string) vector.Metric {
	switch space {
	case "cosine":
		return vector.MetricCosine
	case "ip":
		return vector.MetricInnerProduct
	default:
		return vector.MetricL2
	}
}

// do sends a JSON request and decodes a JSON response into out. The HTTP status
// is returned alongside any error so callers can branch on it.
func (d *Driver) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("%w: sending request: %w", vector.ErrConnection, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("chroma %s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func (d *Driver) collectionPath(op string) string {
	return collectionsPath + "/" + d.collectionID + "/" + op
}

func chunkID(documentID string, index int) string {
	return documentID + "#" + strconv.Itoa(index)
}

// Upsert replaces every chunk of the documents in chunks. Chroma has no
// transactions, so the whole batch is validated before anything is removed.
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

	req := chromaAddRequest{
		IDs:        make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		Metadatas:  make([]map[string]any, len(chunks)),
		Documents:  make([]string, len(chunks)),
	}

	for i, c := range chunks {
		req.IDs[i] = chunkID(c.DocumentID, c.ChunkIndex)
		req.Embeddings[i] = c.Embedding
		req.Documents[i] = c.Content
		req.Metadatas[i] = map[string]any{
			"document_id":     c.DocumentID,
			"title":           c.Title,
			"chunk_index":     c.ChunkIndex,
			"total_chunks":    c.TotalChunks,
			"embedding_model": c.EmbeddingModel,
		}
	}

	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("add"), req, nil); err != nil {
		return 0, fmt.Errorf("adding chunks: %w", err)
	}

	d.logger.Debug("upserted chunks to chroma",
		zap.Int("count", len(chunks)),
	)

	return len(chunks), nil
}

// Search finds the k nearest chunks to query.
func (d *Driver) Search(ctx context.Context, query []float32, k int, metric vector.Metric) ([]vector.ScoredCandidate, error) {
	if err := vector.CheckSearch(d.metric, d.dims, query, k, metric); err != nil {
		return nil, err
	}

	var queryResp chromaQueryResponse
	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("query"), chromaQueryRequest{
		QueryEmbeddings: [][]float32{query},
		NResults:        k,
		Include:         []string{"metadatas", "documents", "distances"},
	}, &queryResp); err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	results := make([]vector.ScoredCandidate, 0, k)

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]

	var (
		distances []float64
		metadatas []map[string]any
		documents []string
	)
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i := range ids {
		var c vector.Chunk
		if i < len(metadatas) && metadatas[i] != nil {
			c.DocumentID, _ = metadatas[i]["document_id"].(string)
			c.Title, _ = metadatas[i]["title"].(string)
			c.ChunkIndex, _ = toInt(metadatas[i]["chunk_index"])
			c.TotalChunks, _ = toInt(metadatas[i]["total_chunks"])
		}
		if i < len(documents) {
			c.Content = documents[i]
		}

		raw := math.NaN()
		if i < len(distances) {
			raw = d.rawScore(distances[i])
		}

		results = append(results, vector.ScoredCandidate{
			Chunk:    c,
			RawScore: raw,
			Metric:   d.metric,
		})
	}

	vector.SortCandidates(results)

	d.logger.Debug("queried chroma",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// rawScore converts Chroma's distance into the metric's native score. Chroma
// reports squared L2, 1 - cosine and 1 - dot product.
func (d *Driver) rawScore(distance float64) float64 {
	switch d.metric {
	case vector.MetricCosine, vector.MetricInnerProduct:
		return 1 - distance
	default:
		return math.Sqrt(math.Max(distance, 0))
	}
}

// Delete removes every chunk of documentID.
func (d *Driver) Delete(ctx context.Context, documentID string) (int, error) {
	var getResp chromaGetResponse
	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("get"), chromaGetRequest{
		Where:   map[string]any{"document_id": map[string]any{"$eq": documentID}},
		Include: []string{},
	}, &getResp); err != nil {
		return 0, fmt.Errorf("listing chunks of %s: %w", documentID, err)
	}

	if len(getResp.IDs) == 0 {
		return 0, nil
	}

	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("delete"), chromaDeleteRequest{
		IDs: getResp.IDs,
	}, nil); err != nil {
		return 0, fmt.Errorf("deleting chunks of %s: %w", documentID, err)
	}

	d.logger.Debug("deleted document from chroma",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(getResp.IDs)),
	)

	return len(getResp.IDs), nil
}

func (d *Driver) Metric() vector.Metric { return d.metric }

func (d *Driver) Dimensions() uint { return d.dims }

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	d.httpClient.CloseIdleConnections()
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

var _ vector.Driver = (*Driver)(nil)
