// Package api provides the HTTP API server for indexing documents and
// retrieving relevant context from them.
package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/retrieval"
)

// Retriever answers retrieval queries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts retrieval.Options) (*retrieval.Result, error)
}

// Indexer stores and removes documents.
type Indexer interface {
	Index(ctx context.Context, documentID, title, content string) (int, error)
	Delete(ctx context.Context, documentID string) (int, error)
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Retriever serves /v1/retrieve, /v1/ask and the MCP retrieve tool.
	Retriever Retriever

	// Indexer serves the /v1/documents routes.
	Indexer Indexer

	// Generator answers /v1/ask. Optional; /v1/ask responds 503 without it.
	Generator generation.Generator

	// Options are the retrieval settings used when a request omits them.
	Options retrieval.Options

	// DisableMCP skips mounting the MCP endpoint.
	DisableMCP bool

	// Logger is the provided zap logger
	Logger *zap.Logger
}
