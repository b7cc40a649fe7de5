// Package pgvector provides a PostgreSQL vector driver using the pgvector extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	// DefaultTable is the chunk table name used when none is configured.
	DefaultTable = "document_chunks"

	metaTable = "ragline_index_meta"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Driver implements vector.Driver on PostgreSQL with pgvector.
type Driver struct {
	pool   *pgxpool.Pool
	table  string
	dims   uint
	metric vector.Metric
	model  string
	logger *zap.Logger
}

// Config holds configuration for the pgvector driver.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// Table is the chunk table name. Defaults to DefaultTable.
	Table string

	// Dimensions is the vector dimension of the embedding column.
	Dimensions uint

	// Metric selects the HNSW operator class and search operator.
	// Defaults to vector.MetricL2.
	Metric vector.Metric

	// EmbeddingModel is recorded with the index and enforced on every upsert.
	EmbeddingModel string
}

// NewDriver connects to PostgreSQL, installs the vector extension and creates
// the chunk table and its HNSW index when missing.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.DSN == "" {
		return nil, &vector.ConfigurationError{Field: "dsn", Reason: "postgres DSN is required"}
	}

	if c.Dimensions == 0 {
		return nil, &vector.ConfigurationError{Field: "dimensions", Reason: "must be greater than 0"}
	}

	table := c.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, &vector.ConfigurationError{Field: "table", Reason: fmt.Sprintf("invalid table name %q", table)}
	}

	metric := c.Metric
	if metric == "" {
		metric = vector.MetricL2
	}
	if !metric.Valid() {
		return nil, &vector.ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q", metric)}
	}

	// The extension has to exist before the pool registers the vector type.
	conn, err := pgx.Connect(ctx, c.DSN)
	if err != nil {
		return nil, vector.ContextError(ctx, fmt.Errorf("%w: connecting to postgres: %w", vector.ErrConnection, err))
	}
	_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: creating vector extension: %w", vector.ErrConnection, err)
	}

	poolCfg, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, &vector.ConfigurationError{Field: "dsn", Reason: err.Error()}
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating pool: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		pool:   pool,
		table:  table,
		dims:   c.Dimensions,
		metric: metric,
		model:  c.EmbeddingModel,
		logger: logger,
	}

	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if err := d.checkMeta(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("pgvector driver initialized",
		zap.String("table", table),
		zap.String("metric", string(metric)),
		zap.Uint("dimensions", c.Dimensions),
	)

	return d, nil
}

func (d *Driver) opsClass() string {
	switch d.metric {
	case vector.MetricCosine:
		return "vector_cosine_ops"
	case vector.MetricInnerProduct:
		return "vector_ip_ops"
	default:
		return "vector_l2_ops"
	}
}

// scoreExpr yields the raw score for the metric. pgvector's <=> is cosine
// distance and <#> is the negated inner product.
func (d *Driver) scoreExpr() (score, order string) {
	switch d.metric {
	case vector.MetricCosine:
		return "1 - (embedding <=> $1)", "embedding <=> $1"
	case vector.MetricInnerProduct:
		return "(embedding <#> $1) * -1", "embedding <#> $1"
	default:
		return "embedding <-> $1", "embedding <-> $1"
	}
}

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + metaTable + ` (
			table_name TEXT PRIMARY KEY,
			metric TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT ''
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			document_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			total_chunks INTEGER NOT NULL,
			embedding vector(%d) NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (document_id, chunk_index)
		)`, d.table, d.dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding %s)`,
			d.table, d.table, d.opsClass()),
	}

	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrating schema: %w", vector.ErrConnection, err)
		}
	}

	return nil
}

func (d *Driver) checkMeta(ctx context.Context) error {
	var (
		metric string
		dims   uint
		model  string
	)

	err := d.pool.QueryRow(ctx,
		`SELECT metric, dimensions, embedding_model FROM `+metaTable+` WHERE table_name = $1`, d.table,
	).Scan(&metric, &dims, &model)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err := d.pool.Exec(ctx,
			`INSERT INTO `+metaTable+` (table_name, metric, dimensions, embedding_model) VALUES ($1, $2, $3, $4)`,
			d.table, string(d.metric), d.dims, d.model,
		)
		if err != nil {
			return fmt.Errorf("%w: recording index settings: %w", vector.ErrConnection, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: reading index settings: %w", vector.ErrConnection, err)
	}

	if vector.Metric(metric) != d.metric {
		return &vector.MetricMismatchError{Index: vector.Metric(metric), Query: d.metric}
	}
	if dims != d.dims {
		return &vector.DimensionMismatchError{Expected: dims, Got: d.dims}
	}
	if model != "" && d.model != "" && model != d.model {
		return fmt.Errorf("%w: index %s holds %q vectors, configured model is %q",
			vector.ErrModelMismatch, d.table, model, d.model)
	}

	return nil
}

// Upsert replaces every chunk of the documents in chunks within one transaction.
func (d *Driver) Upsert(ctx context.Context, chunks []vector.EmbeddedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := vector.CheckBatch(d.dims, d.model, chunks); err != nil {
		return 0, err
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("%w: beginning transaction: %w", vector.ErrConnection, err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, id := range vector.DocumentIDs(chunks) {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, d.table), id); err != nil {
			return 0, vector.ContextError(ctx, fmt.Errorf("clearing chunks of %s: %w", id, err))
		}
	}

	batch := &pgx.Batch{}
	insert := fmt.Sprintf(`
		INSERT INTO %s (document_id, title, content, chunk_index, total_chunks, embedding, embedding_model)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.table)
	for _, c := range chunks {
		batch.Queue(insert,
			c.DocumentID, c.Title, c.Content, c.ChunkIndex, c.TotalChunks,
			pgvector.NewVector(c.Embedding), c.EmbeddingModel,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("inserting chunks: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("committing transaction: %w", err))
	}

	d.logger.Debug("upserted chunks to pgvector",
		zap.Int("count", len(chunks)),
	)

	return len(chunks), nil
}

// Search orders by the raw pgvector operator so the HNSW index serves the query.
func (d *Driver) Search(ctx context.Context, query []float32, k int, metric vector.Metric) ([]vector.ScoredCandidate, error) {
	if err := vector.CheckSearch(d.metric, d.dims, query, k, metric); err != nil {
		return nil, err
	}

	score, order := d.scoreExpr()
	rows, err := d.pool.Query(ctx, fmt.Sprintf(`
		SELECT document_id, title, content, chunk_index, total_chunks, %s AS score
		FROM %s
		ORDER BY %s
		LIMIT $2
	`, score, d.table, order), pgvector.NewVector(query), k)
	if err != nil {
		return nil, vector.ContextError(ctx, fmt.Errorf("querying vectors: %w", err))
	}
	defer rows.Close()

	results := make([]vector.ScoredCandidate, 0, k)
	for rows.Next() {
		var (
			c   vector.Chunk
			raw float64
		)
		if err := rows.Scan(&c.DocumentID, &c.Title, &c.Content, &c.ChunkIndex, &c.TotalChunks, &raw); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		results = append(results, vector.ScoredCandidate{
			Chunk:    c,
			RawScore: raw,
			Metric:   d.metric,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, vector.ContextError(ctx, fmt.Errorf("iterating query results: %w", err))
	}

	vector.SortCandidates(results)

	d.logger.Debug("queried pgvector",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Delete removes every chunk of documentID.
func (d *Driver) Delete(ctx context.Context, documentID string) (int, error) {
	tag, err := d.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, d.table), documentID)
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("deleting chunks of %s: %w", documentID, err))
	}

	n := int(tag.RowsAffected())
	d.logger.Debug("deleted document from pgvector",
		zap.String("document_id", documentID),
		zap.Int("chunks", n),
	)

	return n, nil
}

func (d *Driver) Metric() vector.Metric { return d.metric }

func (d *Driver) Dimensions() uint { return d.dims }

// Close releases the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

var _ vector.Driver = (*Driver)(nil)
