package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/vector"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`

	// Stage is the retrieval stage that failed, when known.
	Stage string `json:"stage,omitempty"`
}

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	var (
		cfgErr  *vector.ConfigurationError
		loadErr *embeddings.ModelLoadError
	)

	switch {
	case errors.As(err, &cfgErr):
		return fiber.StatusBadRequest
	case errors.Is(err, vector.ErrTimeout):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &loadErr),
		errors.Is(err, vector.ErrConnection),
		errors.Is(err, generation.ErrGeneration):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, vector.ErrModelMismatch),
		errors.Is(err, vector.ErrInvalidChunk):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	resp := ErrorResponse{Error: err.Error()}

	var retrievalErr *retrieval.RetrievalError
	if errors.As(err, &retrievalErr) {
		resp.Stage = string(retrievalErr.Stage)
	}

	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(resp)
}
