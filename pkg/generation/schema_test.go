package generation_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/similarity"
	"github.com/papercomputeco/ragline/pkg/vector"
)

var _ = Describe("Schemas", func() {
	DescribeTable("SchemaFor",
		func(c category.Category, want generation.Schema) {
			Expect(generation.SchemaFor(c)).To(Equal(want))
		},
		Entry("film", category.Film, generation.SchemaFilmInfo),
		Entry("book", category.Book, generation.SchemaBookInfo),
		Entry("person", category.Person, generation.SchemaPersonInfo),
		Entry("general", category.General, generation.SchemaGeneralInfo),
		Entry("other", category.Other, generation.SchemaGeneralInfo),
	)

	It("knows every variant", func() {
		for _, s := range []generation.Schema{
			generation.SchemaDocumentSummary,
			generation.SchemaFilmInfo,
			generation.SchemaBookInfo,
			generation.SchemaPersonInfo,
			generation.SchemaGeneralInfo,
		} {
			Expect(s.Valid()).To(BeTrue())
			Expect(s.Fields()).NotTo(BeEmpty())
		}
		Expect(generation.Schema("Recipe").Valid()).To(BeFalse())
	})
})

var _ = Describe("BuildPrompt", func() {
	It("lists the context in order and the schema keys", func() {
		prompt := generation.BuildPrompt(generation.Request{
			Query: "Who directed Inception?",
			Context: []generation.ContextDocument{
				{Title: "Inception", Content: "Directed by Christopher Nolan."},
				{Title: "Interstellar", Content: "Also Nolan."},
			},
			Schema: generation.SchemaFilmInfo,
		})

		Expect(strings.Index(prompt, "Document 1: Inception")).To(BeNumerically("<", strings.Index(prompt, "Document 2: Interstellar")))
		Expect(prompt).To(ContainSubstring("Question: Who directed Inception?"))
		Expect(prompt).To(ContainSubstring(`"cast" (list of strings)`))
		Expect(prompt).To(ContainSubstring(`"director" (string)`))
	})
})

var _ = Describe("ContextFrom", func() {
	It("keeps rank order", func() {
		docs := generation.ContextFrom([]similarity.NormalizedCandidate{
			{ScoredCandidate: vector.ScoredCandidate{Chunk: vector.Chunk{Title: "a", Content: "first"}}},
			{ScoredCandidate: vector.ScoredCandidate{Chunk: vector.Chunk{Title: "b", Content: "second"}}},
		})
		Expect(docs).To(Equal([]generation.ContextDocument{
			{Title: "a", Content: "first"},
			{Title: "b", Content: "second"},
		}))
	})
})
