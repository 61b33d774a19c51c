// Package match decides whether two face signatures describe the same
// person. It blends three normalized distance metrics and applies a
// tolerance adapted to the probe's capture quality.
package match

import (
	"errors"
	"math"

	"github.com/MrCodeEU/faceprint/pkg/feature"
	"github.com/MrCodeEU/faceprint/pkg/logging"
)

// ErrLengthMismatch is returned when the stored and probe signatures have
// different schema lengths. Silent truncation corrupts the feature/weight
// correspondence, so it only happens behind an explicit opt-in.
var ErrLengthMismatch = errors.New("signature length mismatch")

// Result is the outcome of one comparison. Computed fresh per call, never
// cached.
type Result struct {
	// Distance is the combined distance between the signatures.
	Distance float64 `json:"distance"`
	// IsMatch reports whether Distance is within Tolerance.
	IsMatch bool `json:"is_match"`
	// Confidence is the user-facing match confidence in percent. It is
	// distinct from the capture-quality confidence.
	Confidence float64 `json:"confidence"`
	// Tolerance is the adaptive tolerance that was actually applied.
	Tolerance float64 `json:"tolerance"`
}

// Matcher compares signatures. The weights and multipliers are empirically
// chosen constants surfaced as configuration.
type Matcher struct {
	BaseTolerance       float64
	MaxExpectedDistance float64

	EuclideanWeight float64
	CosineWeight    float64
	ManhattanWeight float64

	HighQualityBoost     float64
	LowQualityPenalty    float64
	HighQualityThreshold float64
	LowQualityThreshold  float64

	// TruncateOnMismatch truncates both signatures to the shorter length
	// instead of failing. Off by default.
	TruncateOnMismatch bool
}

// NewMatcher returns a Matcher with the default tuning.
func NewMatcher() *Matcher {
	return &Matcher{
		BaseTolerance:        0.6,
		MaxExpectedDistance:  1.0,
		EuclideanWeight:      0.4,
		CosineWeight:         0.4,
		ManhattanWeight:      0.2,
		HighQualityBoost:     1.1,
		LowQualityPenalty:    0.9,
		HighQualityThreshold: 80,
		LowQualityThreshold:  60,
	}
}

// EuclideanDistance is the Euclidean distance normalized by the square
// root of the signature length. Assumes equal-length inputs.
func EuclideanDistance(a, b feature.Signature) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum) / math.Sqrt(float64(len(a)))
}

// CosineDistance is 1 minus the cosine similarity. A zero-norm input is
// maximally dissimilar by definition (distance 1) rather than a division
// by zero.
func CosineDistance(a, b feature.Signature) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// ManhattanDistance is the city-block distance normalized by the
// signature length. Assumes equal-length inputs.
func ManhattanDistance(a, b feature.Signature) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}

// align validates the signature lengths, truncating to the shorter length
// only when explicitly enabled.
func (m *Matcher) align(a, b feature.Signature) (feature.Signature, feature.Signature, error) {
	if len(a) == len(b) {
		return a, b, nil
	}
	if !m.TruncateOnMismatch {
		return nil, nil, ErrLengthMismatch
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	logging.Component("match").Warnf("Signature length mismatch (%d vs %d), truncating to %d", len(a), len(b), n)
	return a[:n], b[:n], nil
}

// CombinedDistance computes the weighted blend of the three metrics.
func (m *Matcher) CombinedDistance(a, b feature.Signature) (float64, error) {
	a, b, err := m.align(a, b)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, ErrLengthMismatch
	}

	return m.EuclideanWeight*EuclideanDistance(a, b) +
		m.CosineWeight*CosineDistance(a, b) +
		m.ManhattanWeight*ManhattanDistance(a, b), nil
}

// adaptiveTolerance adjusts the tolerance for the probe's capture quality:
// lenient on high-quality captures, strict on poor ones.
func (m *Matcher) adaptiveTolerance(base, probeQuality float64) float64 {
	switch {
	case probeQuality > m.HighQualityThreshold:
		return base * m.HighQualityBoost
	case probeQuality < m.LowQualityThreshold:
		return base * m.LowQualityPenalty
	default:
		return base
	}
}

// Compare compares a stored signature against a probe using the base
// tolerance. probeQuality is the capture-quality confidence in [0, 100].
func (m *Matcher) Compare(stored, probe feature.Signature, probeQuality float64) (*Result, error) {
	return m.CompareWithTolerance(stored, probe, m.BaseTolerance, probeQuality)
}

// CompareWithTolerance is Compare with a caller-supplied base tolerance.
func (m *Matcher) CompareWithTolerance(stored, probe feature.Signature, tolerance, probeQuality float64) (*Result, error) {
	distance, err := m.CombinedDistance(stored, probe)
	if err != nil {
		return nil, err
	}

	adaptive := m.adaptiveTolerance(tolerance, probeQuality)
	confidence := (1 - distance/m.MaxExpectedDistance) * 100
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return &Result{
		Distance:   distance,
		IsMatch:    distance <= adaptive,
		Confidence: confidence,
		Tolerance:  adaptive,
	}, nil
}

// FindBestMatch compares the probe against a gallery of stored signatures
// and returns the index and result of the closest one. Returns -1 and nil
// for an empty gallery.
func (m *Matcher) FindBestMatch(probe feature.Signature, gallery []feature.Signature, probeQuality float64) (int, *Result, error) {
	bestIdx := -1
	var best *Result

	for i, stored := range gallery {
		res, err := m.Compare(stored, probe, probeQuality)
		if err != nil {
			return -1, nil, err
		}
		if best == nil || res.Distance < best.Distance {
			bestIdx, best = i, res
		}
	}
	return bestIdx, best, nil
}
