package generation

import (
	"context"

	"github.com/papercomputeco/ragline/pkg/retrieval"
)

// Retriever supplies the context an answer is grounded in.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts retrieval.Options) (*retrieval.Result, error)
}

// Ask retrieves context for query and generates an answer of schema, or of
// the schema matching the query category when schema is empty. The model is
// not called when retrieval finds nothing.
func Ask(
	ctx context.Context,
	r Retriever,
	g Generator,
	query string,
	schema Schema,
	opts retrieval.Options,
) (*retrieval.Result, *Answer, error) {
	result, err := r.Retrieve(ctx, query, opts)
	if err != nil {
		return nil, nil, err
	}

	if schema == "" {
		schema = SchemaFor(result.Category)
	}

	if len(result.Candidates) == 0 {
		return result, NoContext(schema), nil
	}

	answer, err := g.Generate(ctx, Request{
		Query:   query,
		Context: ContextFrom(result.Candidates),
		Schema:  schema,
	})
	if err != nil {
		return result, nil, err
	}

	return result, answer, nil
}
