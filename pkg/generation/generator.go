// Package generation turns retrieved context into structured answers from a
// language model.
package generation

import (
	"context"

	"github.com/papercomputeco/ragline/pkg/similarity"
)

// NoContextAnswer is returned instead of calling the model when retrieval
// found nothing relevant.
const NoContextAnswer = "no relevant context found"

// ContextDocument is one retrieved passage handed to the model.
type ContextDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Request is a single structured generation call.
type Request struct {
	Query   string
	Context []ContextDocument
	Schema  Schema
}

// Answer is a decoded model answer.
type Answer struct {
	// Schema is the variant Data holds.
	Schema Schema `json:"schema"`

	// Data is a pointer to the schema's struct, nil when NoContext is set.
	Data any `json:"data"`

	// NoContext is set when no relevant context existed.
	NoContext bool `json:"no_context,omitempty"`

	// Message explains a NoContext answer.
	Message string `json:"message,omitempty"`

	// Raw is the unparsed model output.
	Raw string `json:"-"`
}

// Generator produces structured answers.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Answer, error)
}

// ContextFrom converts ranked candidates into context documents, keeping their order.
func ContextFrom(candidates []similarity.NormalizedCandidate) []ContextDocument {
	docs := make([]ContextDocument, len(candidates))
	for i, c := range candidates {
		docs[i] = ContextDocument{Title: c.Chunk.Title, Content: c.Chunk.Content}
	}
	return docs
}

// NoContext builds the answer used when retrieval returned no candidates.
func NoContext(schema Schema) *Answer {
	return &Answer{Schema: schema, NoContext: true, Message: NoContextAnswer}
}
