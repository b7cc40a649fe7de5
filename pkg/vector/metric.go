package vector

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Metric is the function used to compare two vectors in the index.
type Metric string

const (
	MetricL2           Metric = "l2"
	MetricCosine       Metric = "cosine"
	MetricInnerProduct Metric = "inner_product"
)

// ParseMetric resolves a configured metric name. Common aliases used by the
// supported backends are accepted.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l2", "euclid", "euclidean":
		return MetricL2, nil
	case "cosine", "cos":
		return MetricCosine, nil
	case "inner_product", "ip", "dot":
		return MetricInnerProduct, nil
	default:
		return "", &ConfigurationError{
			Field:  "metric",
			Reason: fmt.Sprintf("unsupported metric %q (available: l2, cosine, inner_product)", s),
		}
	}
}

// Valid reports whether m is one of the supported metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricL2, MetricCosine, MetricInnerProduct:
		return true
	}
	return false
}

// Ascending reports whether smaller raw scores are better for m.
func (m Metric) Ascending() bool {
	return m == MetricL2
}

// Score computes the native raw score between a and b for m.
// The vectors must be of equal length.
func (m Metric) Score(a, b []float32) float64 {
	switch m {
	case MetricL2:
		return L2Distance(a, b)
	case MetricCosine:
		return CosineSimilarity(a, b)
	default:
		return Dot(a, b)
	}
}

// SortCandidates orders candidates in the native better-first direction of
// their metric. Ties keep their incoming order.
func SortCandidates(candidates []ScoredCandidate) {
	slices.SortStableFunc(candidates, func(a, b ScoredCandidate) int {
		if a.Metric.Ascending() {
			return cmpFloat(a.RawScore, b.RawScore)
		}
		return cmpFloat(b.RawScore, a.RawScore)
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// L2Distance returns the Euclidean distance between a and b.
func L2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero length.
func CosineSimilarity(a, b []float32) float64 {
	var na, nb float64
	for i := range a {
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
}
