// Package ollama implements pkg/generation's Generator on Ollama's chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/generation"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gemma3:12b"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTemperature keeps answers close to the supplied context.
	DefaultTemperature = 0.2

	systemPrompt = "You extract facts from documents and answer strictly in JSON."
)

// Generator calls Ollama's /api/chat in JSON mode.
type Generator struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
}

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// Temperature defaults to DefaultTemperature.
	Temperature float64

	// Timeout bounds the chat round trip. Defaults to 5 minutes.
	Timeout time.Duration
}

// NewGenerator creates a Generator.
func NewGenerator(c Config, logger *zap.Logger) *Generator {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := c.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &Generator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Generate asks the model for an answer in req.Schema and decodes it. A
// request without context is answered with generation.NoContext and never
// reaches the model.
func (g *Generator) Generate(ctx context.Context, req generation.Request) (*generation.Answer, error) {
	schema := req.Schema
	if !schema.Valid() {
		schema = generation.SchemaGeneralInfo
	}
	req.Schema = schema

	if len(req.Context) == 0 {
		return generation.NoContext(schema), nil
	}

	raw, err := g.chat(ctx, generation.BuildPrompt(req))
	if err != nil {
		return nil, err
	}

	data, err := generation.Decode(schema, raw)
	if err != nil {
		g.logger.Warn("could not decode model answer",
			zap.String("schema", string(schema)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", generation.ErrGeneration, err)
	}

	g.logger.Debug("generated answer",
		zap.String("model", g.model),
		zap.String("schema", string(schema)),
		zap.Int("context_documents", len(req.Context)),
	)

	return &generation.Answer{Schema: schema, Data: data, Raw: raw}, nil
}

func (g *Generator) chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Format:  "json",
		Options: &chatOptions{Temperature: g.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %w", generation.ErrGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", generation.ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %w", generation.ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama returned status %d: %s",
			generation.ErrGeneration, resp.StatusCode, string(b))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", generation.ErrGeneration, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", generation.ErrGeneration, out.Error)
	}

	return out.Message.Content, nil
}

// Model returns the chat model name.
func (g *Generator) Model() string { return g.model }

var _ generation.Generator = (*Generator)(nil)
