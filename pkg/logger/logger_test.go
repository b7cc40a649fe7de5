package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes console output", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriters(&buf))
			l.Info("hello", zap.String("key", "value"))

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriters(&buf), logger.WithJSON(true))
			l.Info("structured", zap.Int("count", 42))

			var parsed map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &parsed)).To(Succeed())
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
		})

		It("supports multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf1, &buf2)
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})

		It("tees into a log file", func() {
			var buf bytes.Buffer
			path := filepath.Join(GinkgoT().TempDir(), "ragline.log")

			l := logger.New(logger.WithWriters(&buf), logger.WithFile(path, 1))
			l.Warn("to both", zap.String("document_id", "doc-1"))
			Expect(l.Sync()).To(Succeed())

			Expect(buf.String()).To(ContainSubstring("to both"))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			var parsed map[string]any
			Expect(json.Unmarshal(bytes.TrimSpace(data), &parsed)).To(Succeed())
			Expect(parsed["msg"]).To(Equal("to both"))
			Expect(parsed["document_id"]).To(Equal("doc-1"))
		})
	})
})
