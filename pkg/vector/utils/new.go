// Package vectorutils builds vector drivers from provider settings.
package vectorutils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
	"github.com/papercomputeco/ragline/pkg/vector/chroma"
	"github.com/papercomputeco/ragline/pkg/vector/inmemory"
	"github.com/papercomputeco/ragline/pkg/vector/pgvector"
	"github.com/papercomputeco/ragline/pkg/vector/qdrant"
	"github.com/papercomputeco/ragline/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	// ProviderType is one of sqlite, pgvector, chroma, qdrant or memory.
	ProviderType string

	// Target is the provider address: a database file for sqlite, a DSN for
	// pgvector, a URL for chroma and host[:port] for qdrant.
	Target string

	// Collection is the table or collection name.
	Collection string

	// APIKey is passed to providers that authenticate (qdrant).
	APIKey string

	Metric         vector.Metric
	Dimensions     uint
	EmbeddingModel string

	Logger *zap.Logger
}

// NewVectorDriver opens the configured vector store.
func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch o.ProviderType {
	case "sqlite", "sqlitevec", "":
		return open(sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:         o.Target,
			Table:          o.Collection,
			Dimensions:     o.Dimensions,
			Metric:         o.Metric,
			EmbeddingModel: o.EmbeddingModel,
		}, logger))

	case "pgvector", "postgres":
		return open(pgvector.NewDriver(ctx, pgvector.Config{
			DSN:            o.Target,
			Table:          o.Collection,
			Dimensions:     o.Dimensions,
			Metric:         o.Metric,
			EmbeddingModel: o.EmbeddingModel,
		}, logger))

	case "chroma":
		return open(chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
			Metric:         o.Metric,
			EmbeddingModel: o.EmbeddingModel,
		}, logger))

	case "qdrant":
		host, port, useTLS, err := parseHostPort(o.Target)
		if err != nil {
			return nil, err
		}
		return open(qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			APIKey:         o.APIKey,
			UseTLS:         useTLS,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
			Metric:         o.Metric,
			EmbeddingModel: o.EmbeddingModel,
		}, logger))

	case "memory", "inmemory":
		return open(inmemory.NewDriver(inmemory.Config{
			Dimensions:     o.Dimensions,
			Metric:         o.Metric,
			EmbeddingModel: o.EmbeddingModel,
		}, logger))

	default:
		return nil, &vector.ConfigurationError{
			Field:  "vector_store.provider",
			Reason: fmt.Sprintf("unsupported vector store provider: %s", o.ProviderType),
		}
	}
}

// open keeps a failed constructor's nil pointer out of the interface.
func open[D vector.Driver](d D, err error) (vector.Driver, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

// parseHostPort accepts "host", "host:port" or an http(s) URL.
func parseHostPort(target string) (string, int, bool, error) {
	if target == "" {
		return "", 0, false, &vector.ConfigurationError{Field: "vector_store.target", Reason: "qdrant host is required"}
	}

	useTLS := false
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", 0, false, &vector.ConfigurationError{Field: "vector_store.target", Reason: err.Error()}
		}
		useTLS = u.Scheme == "https"
		target = u.Host
	}

	if !strings.Contains(target, ":") {
		return target, 0, useTLS, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return "", 0, false, &vector.ConfigurationError{Field: "vector_store.target", Reason: err.Error()}
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, &vector.ConfigurationError{Field: "vector_store.target", Reason: fmt.Sprintf("invalid port %q", portStr)}
	}

	return host, port, useTLS, nil
}
