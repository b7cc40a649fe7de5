package vectorutils

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragline/pkg/vector"
	"github.com/papercomputeco/ragline/pkg/vector/inmemory"
	"github.com/papercomputeco/ragline/pkg/vector/sqlitevec"
)

var _ = Describe("NewVectorDriver", func() {
	ctx := context.Background()

	It("opens an in-memory index", func() {
		d, err := NewVectorDriver(ctx, &NewVectorDriverOpts{
			ProviderType: "memory",
			Dimensions:   8,
			Metric:       vector.MetricCosine,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
		Expect(d.Metric()).To(Equal(vector.MetricCosine))
	})

	It("opens a sqlite-vec index", func() {
		d, err := NewVectorDriver(ctx, &NewVectorDriverOpts{
			ProviderType: "sqlite",
			Target:       ":memory:",
			Dimensions:   8,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&sqlitevec.Driver{}))
		Expect(d.Close()).To(Succeed())
	})

	It("rejects unknown providers", func() {
		_, err := NewVectorDriver(ctx, &NewVectorDriverOpts{ProviderType: "faiss", Dimensions: 8})
		var cfgErr *vector.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Error()).To(ContainSubstring("faiss"))
	})
})

var _ = Describe("parseHostPort", func() {
	DescribeTable("targets",
		func(target, host string, port int, tls bool) {
			h, p, t, err := parseHostPort(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(host))
			Expect(p).To(Equal(port))
			Expect(t).To(Equal(tls))
		},
		Entry("bare host", "qdrant", "qdrant", 0, false),
		Entry("host and port", "localhost:6334", "localhost", 6334, false),
		Entry("https url", "https://cloud.qdrant.io:6334", "cloud.qdrant.io", 6334, true),
	)

	It("rejects an empty target", func() {
		_, _, _, err := parseHostPort("")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non numeric port", func() {
		_, _, _, err := parseHostPort("localhost:grpc")
		Expect(err).To(HaveOccurred())
	})
})
