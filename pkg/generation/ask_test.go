package generation_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/similarity"
	"github.com/papercomputeco/ragline/pkg/vector"
)

type stubRetriever struct {
	result *retrieval.Result
	err    error
}

func (s stubRetriever) Retrieve(context.Context, string, retrieval.Options) (*retrieval.Result, error) {
	return s.result, s.err
}

type recordingGenerator struct {
	requests []generation.Request
	err      error
}

func (g *recordingGenerator) Generate(_ context.Context, req generation.Request) (*generation.Answer, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &generation.Answer{Schema: req.Schema, Data: &generation.GeneralInfo{Title: "ok"}}, nil
}

var _ = Describe("Ask", func() {
	var (
		ctx       context.Context
		generator *recordingGenerator
		found     *retrieval.Result
	)

	BeforeEach(func() {
		ctx = context.Background()
		generator = &recordingGenerator{}
		found = &retrieval.Result{
			Query:    "who wrote dune",
			Category: category.Book,
			Candidates: []similarity.NormalizedCandidate{
				{
					ScoredCandidate: vector.ScoredCandidate{Chunk: vector.Chunk{DocumentID: "dune", Title: "Dune", Content: "Dune is a novel by Frank Herbert."}},
					Similarity:      0.7,
				},
			},
		}
	})

	It("picks the schema from the query category", func() {
		result, answer, err := generation.Ask(ctx, stubRetriever{result: found}, generator, "who wrote dune", "", retrieval.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(found))
		Expect(answer.Schema).To(Equal(generation.SchemaBookInfo))

		Expect(generator.requests).To(HaveLen(1))
		Expect(generator.requests[0].Context).To(Equal([]generation.ContextDocument{
			{Title: "Dune", Content: "Dune is a novel by Frank Herbert."},
		}))
	})

	It("keeps an explicit schema", func() {
		_, answer, err := generation.Ask(ctx, stubRetriever{result: found}, generator, "dune", generation.SchemaDocumentSummary, retrieval.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(answer.Schema).To(Equal(generation.SchemaDocumentSummary))
	})

	It("does not call the model without context", func() {
		empty := &retrieval.Result{Query: "q", Category: category.General}

		_, answer, err := generation.Ask(ctx, stubRetriever{result: empty}, generator, "q", "", retrieval.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(answer.NoContext).To(BeTrue())
		Expect(answer.Message).To(Equal(generation.NoContextAnswer))
		Expect(generator.requests).To(BeEmpty())
	})

	It("returns retrieval errors", func() {
		_, _, err := generation.Ask(ctx, stubRetriever{err: errors.New("store down")}, generator, "q", "", retrieval.DefaultOptions())
		Expect(err).To(MatchError("store down"))
	})

	It("returns generation errors with the retrieval result", func() {
		generator.err = generation.ErrGeneration

		result, answer, err := generation.Ask(ctx, stubRetriever{result: found}, generator, "q", "", retrieval.DefaultOptions())
		Expect(err).To(MatchError(generation.ErrGeneration))
		Expect(result).NotTo(BeNil())
		Expect(answer).To(BeNil())
	})
})
