package kafka

import (
	"go.uber.org/zap"
)

// NewPublisherWithWriter exposes the writer seam to tests.
func NewPublisherWithWriter(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	return newPublisher(w, topic, logger)
}
