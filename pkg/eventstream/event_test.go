package eventstream_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragline/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals DocumentEvent with expected top-level keys", func() {
		event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentIndexed,
			eventstream.EventSource{Service: "ragline", Provider: "sqlite", Metric: "l2"},
			eventstream.DocumentMeta{ID: "doc-1", Title: "Scandinavia Guide", Chunks: 3, EmbeddingModel: "hashing-v1"},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("document"))
		Expect(got["document"]).To(HaveKeyWithValue("chunks", BeNumerically("==", 3)))
	})

	It("stamps unique ids", func() {
		a := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentDeleted, eventstream.EventSource{}, eventstream.DocumentMeta{ID: "x"})
		b := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentDeleted, eventstream.EventSource{}, eventstream.DocumentMeta{ID: "x"})
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(strings.HasPrefix(a.EventID, "evt_")).To(BeTrue())
		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.EmittedAt.IsZero()).To(BeFalse())
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeDocumentIndexed).To(Equal("ragline.document.indexed"))
		Expect(eventstream.EventTypeDocumentDeleted).To(Equal("ragline.document.deleted"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil document event"))
	})
})
