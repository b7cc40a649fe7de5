// Package similarity converts raw nearest neighbor scores of any supported
// metric into a unit similarity where 1.0 means identical.
package similarity

import (
	"math"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

// DefaultInnerProductCutoff is the raw inner product below which similarity
// is reported as 0 instead of sigmoid noise.
const DefaultInnerProductCutoff = -6.0

// NormalizedCandidate is a ScoredCandidate with a metric independent similarity.
type NormalizedCandidate struct {
	vector.ScoredCandidate

	// Similarity is in [0, 1], 1.0 being most similar.
	Similarity float64 `json:"similarity"`
}

// Normalizer maps raw scores onto [0, 1].
type Normalizer struct {
	ipCutoff float64
	logger   *zap.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithInnerProductCutoff overrides DefaultInnerProductCutoff.
func WithInnerProductCutoff(cutoff float64) Option {
	return func(n *Normalizer) {
		n.ipCutoff = cutoff
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *zap.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		ipCutoff: DefaultInnerProductCutoff,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw into a similarity in [0, 1]:
//
//	cosine:        clamp(raw, 0, 1)
//	l2:            1 / (1 + raw)
//	inner product: sigmoid(raw), or 0 below the cutoff
//
// Unknown metrics fall back to inverting distance-like values above 1 and
// clamping the rest, and log a warning.
func (n *Normalizer) Normalize(raw float64, metric vector.Metric) float64 {
	sim, fallback := n.normalize(raw, metric)
	if fallback {
		n.logger.Warn("normalizing score of unknown metric with fallback heuristic",
			zap.String("metric", string(metric)),
			zap.Float64("raw_score", raw),
		)
	}
	return sim
}

// NormalizeAll lifts candidates into NormalizedCandidates, keeping their order.
func (n *Normalizer) NormalizeAll(candidates []vector.ScoredCandidate) []NormalizedCandidate {
	out := make([]NormalizedCandidate, len(candidates))
	fallbacks := 0
	for i, c := range candidates {
		sim, fallback := n.normalize(c.RawScore, c.Metric)
		if fallback {
			fallbacks++
		}
		out[i] = NormalizedCandidate{ScoredCandidate: c, Similarity: sim}
	}

	if fallbacks > 0 {
		n.logger.Warn("normalized candidates of unknown metric with fallback heuristic",
			zap.String("metric", string(candidates[0].Metric)),
			zap.Int("count", fallbacks),
		)
	}

	return out
}

func (n *Normalizer) normalize(raw float64, metric vector.Metric) (float64, bool) {
	if math.IsNaN(raw) {
		return 0, false
	}

	switch metric {
	case vector.MetricCosine:
		return clamp(raw), false

	case vector.MetricL2:
		if raw < 0 {
			raw = 0
		}
		return 1 / (1 + raw), false

	case vector.MetricInnerProduct:
		if raw < n.ipCutoff {
			return 0, false
		}
		return 1 / (1 + math.Exp(-raw)), false

	default:
		if raw > 1 {
			return 1 / raw, true
		}
		return clamp(raw), true
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
