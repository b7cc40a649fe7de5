package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/similarity"
)

var (
	retrieveToolName    = "retrieve"
	retrieveDescription = "Retrieve the indexed document chunks most relevant to a query. Results are filtered by similarity and by the query's category (film, book or person) and ranked best first."
)

// RetrieveInput represents the input arguments for the retrieve tool.
type RetrieveInput struct {
	Query      string   `json:"query" jsonschema:"the question or search text"`
	K          int      `json:"k,omitempty" jsonschema:"number of nearest neighbors fetched before filtering"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"maximum number of chunks returned"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity in [0, 1]"`
}

// RetrieveResult represents a single retrieved chunk.
type RetrieveResult struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
}

// RetrieveOutput represents the output of the retrieve tool.
type RetrieveOutput struct {
	Query    string            `json:"query"`
	Category category.Category `json:"category"`
	Results  []RetrieveResult  `json:"results"`
	Count    int               `json:"count"`
}

func (s *Server) options(input RetrieveInput) retrieval.Options {
	opts := s.config.Options
	if input.K > 0 {
		opts.K = input.K
	}
	if input.MaxResults > 0 {
		opts.MaxResults = input.MaxResults
	}
	if input.Threshold != nil {
		opts.Threshold = *input.Threshold
	}
	return opts
}

// handleRetrieve processes a retrieve request.
func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	logger := s.config.Logger
	opts := s.options(input)

	logger.Debug("MCP retrieve request",
		zap.String("query", input.Query),
		zap.Int("k", opts.K),
		zap.Int("max_results", opts.MaxResults),
	)

	result, err := s.config.Retriever.Retrieve(ctx, input.Query, opts)
	if err != nil {
		logger.Error("failed to retrieve", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to retrieve: %v", err)), RetrieveOutput{}, nil
	}

	output := RetrieveOutput{
		Query:    result.Query,
		Category: result.Category,
		Results:  buildResults(result.Candidates),
	}
	output.Count = len(output.Results)

	// Structured output is mirrored as JSON text for clients without
	// structured content support.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal retrieve output", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), RetrieveOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func buildResults(candidates []similarity.NormalizedCandidate) []RetrieveResult {
	results := make([]RetrieveResult, len(candidates))
	for i, c := range candidates {
		results[i] = RetrieveResult{
			DocumentID: c.Chunk.DocumentID,
			Title:      c.Chunk.Title,
			Content:    c.Chunk.Content,
			ChunkIndex: c.Chunk.ChunkIndex,
			Similarity: c.Similarity,
		}
	}
	return results
}
