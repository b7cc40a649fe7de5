package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIndexed is emitted after a document's chunks are stored.
	EventTypeDocumentIndexed = "ragline.document.indexed"

	// EventTypeDocumentDeleted is emitted after a document's chunks are removed.
	EventTypeDocumentDeleted = "ragline.document.deleted"
)

// DocumentEvent is a transport-neutral event payload for an index mutation.
type DocumentEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Document      DocumentMeta `json:"document"`
}

// EventSource identifies the index the mutation happened in.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider,omitempty"`
	Metric   string `json:"metric,omitempty"`
}

// DocumentMeta describes the document the event is about.
type DocumentMeta struct {
	ID             string `json:"id"`
	Title          string `json:"title,omitempty"`
	Chunks         int    `json:"chunks"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// NewDocumentEvent stamps a new event of eventType for doc.
func NewDocumentEvent(eventType string, source EventSource, doc DocumentMeta) *DocumentEvent {
	return &DocumentEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Document:      doc,
	}
}
