package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/similarity"
)

// IndexRequest is the body of POST /v1/documents.
type IndexRequest struct {
	// ID defaults to a generated "doc_" identifier.
	ID string `json:"id"`

	// Title defaults to the ID.
	Title string `json:"title"`

	Content string `json:"content" validate:"required"`
}

// IndexResponse reports the stored document.
type IndexResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Chunks int    `json:"chunks"`
}

// DeleteResponse reports the removed document.
type DeleteResponse struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
}

// RetrieveResponse is the body of GET /v1/retrieve.
type RetrieveResponse struct {
	Query    string            `json:"query"`
	Category category.Category `json:"category"`
	Results  []RetrievedChunk  `json:"results"`
	Count    int               `json:"count"`
}

// RetrievedChunk is one ranked chunk.
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query" validate:"required"`

	// Schema overrides the schema chosen from the query category.
	Schema generation.Schema `json:"schema"`

	K          *int     `json:"k"`
	Threshold  *float64 `json:"threshold"`
	MaxResults *int     `json:"max_results"`
}

// AskResponse is the body of POST /v1/ask.
type AskResponse struct {
	Query    string             `json:"query"`
	Category category.Category  `json:"category"`
	Answer   *generation.Answer `json:"answer"`
	Sources  []RetrievedChunk   `json:"sources"`
}

func toRetrievedChunks(candidates []similarity.NormalizedCandidate) []RetrievedChunk {
	out := make([]RetrievedChunk, len(candidates))
	for i, c := range candidates {
		out[i] = RetrievedChunk{
			DocumentID: c.Chunk.DocumentID,
			Title:      c.Chunk.Title,
			Content:    c.Chunk.Content,
			ChunkIndex: c.Chunk.ChunkIndex,
			Similarity: c.Similarity,
		}
	}
	return out
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleIndexDocument chunks, embeds and stores a document.
func (s *Server) handleIndexDocument(c *fiber.Ctx) error {
	var req IndexRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
	}

	if req.ID == "" {
		req.ID = "doc_" + uuid.NewString()
	}
	if req.Title == "" {
		req.Title = req.ID
	}

	n, err := s.config.Indexer.Index(c.UserContext(), req.ID, req.Title, req.Content)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(IndexResponse{
		ID:     req.ID,
		Title:  req.Title,
		Chunks: n,
	})
}

// handleDeleteDocument removes every chunk of a document.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	n, err := s.config.Indexer.Delete(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err)
	}
	if n == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "document not found"})
	}

	return c.JSON(DeleteResponse{ID: id, Chunks: n})
}

// handleRetrieve returns the relevant chunks for the query parameter.
func (s *Server) handleRetrieve(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter required"})
	}

	opts := retrieval.Options{
		K:          c.QueryInt("k", s.config.Options.K),
		Threshold:  c.QueryFloat("threshold", s.config.Options.Threshold),
		MaxResults: c.QueryInt("max_results", s.config.Options.MaxResults),
	}

	result, err := s.config.Retriever.Retrieve(c.UserContext(), query, opts)
	if err != nil {
		return s.fail(c, err)
	}

	results := toRetrievedChunks(result.Candidates)
	return c.JSON(RetrieveResponse{
		Query:    result.Query,
		Category: result.Category,
		Results:  results,
		Count:    len(results),
	})
}

// handleAsk retrieves context and generates a structured answer from it.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	if s.config.Generator == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "answer generation is not configured"})
	}

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
	}
	if req.Schema != "" && !req.Schema.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("unknown schema %q", req.Schema)})
	}

	opts := s.config.Options
	if req.K != nil {
		opts.K = *req.K
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	if req.MaxResults != nil {
		opts.MaxResults = *req.MaxResults
	}

	result, answer, err := generation.Ask(c.UserContext(), s.config.Retriever, s.config.Generator, req.Query, req.Schema, opts)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(AskResponse{
		Query:    result.Query,
		Category: result.Category,
		Answer:   answer,
		Sources:  toRetrievedChunks(result.Candidates),
	})
}
