// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	// DefaultTable is the chunk table name used when none is configured.
	DefaultTable = "document_chunks"

	// MaxK is the largest k vec0 accepts in a KNN query. Larger searches are
	// clamped to it.
	MaxK = 4096

	metaTable = "ragline_index_meta"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	table  string
	vec    string
	dims   uint
	metric vector.Metric
	model  string
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Table is the chunk table name. Defaults to DefaultTable.
	Table string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint

	// Metric is the distance metric of the index. sqlite-vec supports
	// vector.MetricL2 and vector.MetricCosine. Defaults to vector.MetricL2.
	Metric vector.Metric

	// EmbeddingModel is recorded with the index and enforced on every upsert.
	EmbeddingModel string
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec. An
// existing index whose recorded metric, dimension or model disagree with c is
// refused.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, &vector.ConfigurationError{Field: "db_path", Reason: "database path is required"}
	}

	if c.Dimensions == 0 {
		return nil, &vector.ConfigurationError{Field: "dimensions", Reason: "sqlite-vec embedding dimensions cannot be 0, must be configured"}
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

	var distance string
	switch metric {
	case vector.MetricL2:
		distance = "l2"
	case vector.MetricCosine:
		distance = "cosine"
	default:
		return nil, &vector.ConfigurationError{
			Field:  "metric",
			Reason: fmt.Sprintf("sqlite-vec does not support %q", metric),
		}
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", vector.ErrConnection, err)
	}

	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		db:     db,
		table:  table,
		vec:    table + "_vec",
		dims:   c.Dimensions,
		metric: metric,
		model:  c.EmbeddingModel,
		logger: logger,
	}

	if err := d.migrate(distance); err != nil {
		db.Close()
		return nil, err
	}

	if err := d.checkMeta(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.String("table", table),
		zap.String("metric", string(metric)),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return d, nil
}

func (d *Driver) migrate(distance string) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + metaTable + ` (
			table_name TEXT PRIMARY KEY,
			metric TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT ''
		)`,
		// vec0 virtual tables use integer rowids, so chunk metadata lives in
		// a regular table sharing the rowid.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			total_chunks INTEGER NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(document_id, chunk_index)
		)`, d.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_id ON %s(document_id)`, d.table, d.table),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d] distance_metric=%s)`,
			d.vec, d.dims, distance),
	}

	for _, stmt := range stmts {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: migrating schema: %w", vector.ErrConnection, err)
		}
	}

	return nil
}

// checkMeta records the index settings on first open and compares them on
// every later one.
func (d *Driver) checkMeta() error {
	var (
		metric string
		dims   uint
		model  string
	)

	err := d.db.QueryRow(
		`SELECT metric, dimensions, embedding_model FROM `+metaTable+` WHERE table_name = ?`, d.table,
	).Scan(&metric, &dims, &model)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err := d.db.Exec(
			`INSERT INTO `+metaTable+`(table_name, metric, dimensions, embedding_model) VALUES (?, ?, ?, ?)`,
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

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Upsert replaces every chunk of the documents in chunks within a single
// transaction.
func (d *Driver) Upsert(ctx context.Context, chunks []vector.EmbeddedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := vector.CheckBatch(d.dims, d.model, chunks); err != nil {
		return 0, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("%w: beginning transaction: %w", vector.ErrConnection, err))
	}
	defer tx.Rollback()

	for _, id := range vector.DocumentIDs(chunks) {
		if _, err := d.deleteDocument(ctx, tx, id); err != nil {
			return 0, vector.ContextError(ctx, err)
		}
	}

	insertChunk := fmt.Sprintf(`
		INSERT INTO %s(document_id, title, content, chunk_index, total_chunks, embedding_model)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.table)
	insertVec := fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, d.vec)

	for _, c := range chunks {
		result, err := tx.ExecContext(ctx, insertChunk,
			c.DocumentID, c.Title, c.Content, c.ChunkIndex, c.TotalChunks, c.EmbeddingModel,
		)
		if err != nil {
			return 0, vector.ContextError(ctx, fmt.Errorf("inserting chunk %s/%d: %w", c.DocumentID, c.ChunkIndex, err))
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting rowid for chunk %s/%d: %w", c.DocumentID, c.ChunkIndex, err)
		}

		if _, err := tx.ExecContext(ctx, insertVec, rowID, serializeFloat32(c.Embedding)); err != nil {
			return 0, vector.ContextError(ctx, fmt.Errorf("inserting embedding for chunk %s/%d: %w", c.DocumentID, c.ChunkIndex, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("committing transaction: %w", err))
	}

	d.logger.Debug("upserted chunks to sqlite-vec",
		zap.Int("count", len(chunks)),
	)

	return len(chunks), nil
}

// Search runs a KNN query through vec0 MATCH and joins the chunk metadata back.
func (d *Driver) Search(ctx context.Context, query []float32, k int, metric vector.Metric) ([]vector.ScoredCandidate, error) {
	if err := vector.CheckSearch(d.metric, d.dims, query, k, metric); err != nil {
		return nil, err
	}
	k = min(k, MaxK)

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			c.document_id,
			c.title,
			c.content,
			c.chunk_index,
			c.total_chunks,
			v.distance
		FROM %s v
		INNER JOIN %s c ON c.rowid = v.rowid
		WHERE v.embedding MATCH ?
			AND v.k = ?
		ORDER BY v.distance
	`, d.vec, d.table), serializeFloat32(query), k)
	if err != nil {
		return nil, vector.ContextError(ctx, fmt.Errorf("querying vectors: %w", err))
	}
	defer rows.Close()

	results := make([]vector.ScoredCandidate, 0, k)
	for rows.Next() {
		var (
			c        vector.Chunk
			distance float64
		)
		if err := rows.Scan(&c.DocumentID, &c.Title, &c.Content, &c.ChunkIndex, &c.TotalChunks, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		results = append(results, vector.ScoredCandidate{
			Chunk:    c,
			RawScore: d.rawScore(distance),
			Metric:   d.metric,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, vector.ContextError(ctx, fmt.Errorf("iterating query results: %w", err))
	}

	vector.SortCandidates(results)

	d.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// rawScore maps a vec0 distance onto the metric's native score. vec0 reports
// cosine distance, which is 1 - cosine similarity.
func (d *Driver) rawScore(distance float64) float64 {
	if d.metric == vector.MetricCosine {
		return 1 - distance
	}
	return distance
}

// Delete removes every chunk of documentID.
func (d *Driver) Delete(ctx context.Context, documentID string) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("%w: beginning transaction: %w", vector.ErrConnection, err))
	}
	defer tx.Rollback()

	n, err := d.deleteDocument(ctx, tx, documentID)
	if err != nil {
		return 0, vector.ContextError(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, vector.ContextError(ctx, fmt.Errorf("committing transaction: %w", err))
	}

	d.logger.Debug("deleted document from sqlite-vec",
		zap.String("document_id", documentID),
		zap.Int("chunks", n),
	)

	return n, nil
}

func (d *Driver) deleteDocument(ctx context.Context, tx *sql.Tx, documentID string) (int, error) {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT rowid FROM %s WHERE document_id = ?`, d.table), documentID,
	)
	if err != nil {
		return 0, fmt.Errorf("querying rowids for %s: %w", documentID, err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating rowids: %w", err)
	}

	// vec0 does not cascade, so embeddings go first.
	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, d.vec), rowID,
		); err != nil {
			return 0, fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = ?`, d.table), documentID,
	); err != nil {
		return 0, fmt.Errorf("deleting chunks of %s: %w", documentID, err)
	}

	return len(rowIDs), nil
}

func (d *Driver) Metric() vector.Metric { return d.metric }

func (d *Driver) Dimensions() uint { return d.dims }

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
