package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/similarity"
	"github.com/papercomputeco/ragline/pkg/vector"
)

type fakeRetriever struct {
	result *retrieval.Result
	err    error

	gotQuery string
	gotOpts  retrieval.Options
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, opts retrieval.Options) (*retrieval.Result, error) {
	f.gotQuery = query
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func candidate(doc, title, content string, sim float64) similarity.NormalizedCandidate {
	return similarity.NormalizedCandidate{
		ScoredCandidate: vector.ScoredCandidate{
			Chunk: vector.Chunk{
				DocumentID:  doc,
				Title:       title,
				Content:     content,
				TotalChunks: 1,
			},
			Metric: vector.MetricL2,
		},
		Similarity: sim,
	}
}

var _ = Describe("MCP Server", func() {
	var (
		server    *Server
		retriever *fakeRetriever
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		retriever = &fakeRetriever{
			result: &retrieval.Result{
				Query:    "who directed the matrix",
				Category: category.Film,
				Candidates: []similarity.NormalizedCandidate{
					candidate("matrix", "The Matrix", "The Matrix is a 1999 film directed by the Wachowskis.", 0.82),
					candidate("speed", "Speed", "Speed is a 1994 action film.", 0.41),
				},
			},
		}

		var err error
		server, err = NewServer(Config{
			Retriever: retriever,
			Logger:    zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when retriever is nil", func() {
			_, err := NewServer(Config{Logger: zap.NewNop()})
			Expect(err).To(MatchError(ContainSubstring("retriever is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Retriever: retriever})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("handleRetrieve", func() {
		It("uses the default options when arguments are omitted", func() {
			_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "who directed the matrix"})
			Expect(err).NotTo(HaveOccurred())
			Expect(retriever.gotQuery).To(Equal("who directed the matrix"))
			Expect(retriever.gotOpts).To(Equal(retrieval.DefaultOptions()))
		})

		It("overrides options given by the caller", func() {
			threshold := 0.0
			_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{
				Query:      "speed",
				K:          20,
				MaxResults: 2,
				Threshold:  &threshold,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(retriever.gotOpts).To(Equal(retrieval.Options{K: 20, MaxResults: 2, Threshold: 0}))
		})

		It("returns ranked results and mirrors them as JSON text", func() {
			result, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "who directed the matrix"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Category).To(Equal(category.Film))
			Expect(output.Count).To(Equal(2))
			Expect(output.Results[0].DocumentID).To(Equal("matrix"))
			Expect(output.Results[0].Similarity).To(BeNumerically("~", 0.82, 1e-9))

			Expect(result.Content).To(HaveLen(1))
			text, ok := result.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())

			var decoded RetrieveOutput
			Expect(json.Unmarshal([]byte(text.Text), &decoded)).To(Succeed())
			Expect(decoded).To(Equal(output))
		})

		It("reports retrieval failures as tool errors", func() {
			retriever.err = errors.New("store unavailable")

			result, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "anything"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(output.Count).To(BeZero())

			text, ok := result.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())
			Expect(text.Text).To(ContainSubstring("store unavailable"))
		})
	})

	Describe("over a client session", func() {
		It("lists and calls the retrieve tool", func() {
			clientTransport, serverTransport := mcp.NewInMemoryTransports()

			serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			defer serverSession.Close()

			client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.0"}, nil)
			session, err := client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			defer session.Close()

			tools, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tools.Tools).To(HaveLen(1))
			Expect(tools.Tools[0].Name).To(Equal("retrieve"))

			res, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "retrieve",
				Arguments: map[string]any{"query": "who directed the matrix", "max_results": 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(retriever.gotOpts.MaxResults).To(Equal(1))
		})
	})
})
