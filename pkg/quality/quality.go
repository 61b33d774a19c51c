// Package quality estimates capture quality for a detected face. The
// resulting confidence is advisory: it tunes the matcher's adaptive
// tolerance but never blocks signature creation.
package quality

import (
	"math"

	"github.com/MrCodeEU/faceprint/pkg/imaging"
)

// Weights of the individual scores in the overall confidence.
const (
	sizeWeight      = 0.4
	clarityWeight   = 0.4
	centeringWeight = 0.2

	// maxConfidence caps the reported confidence; the estimator never
	// claims certainty.
	maxConfidence = 95.0
)

// Details is the per-metric diagnostic breakdown, each in [0, 1] except
// Brightness which reports the mean sample level in [0, 255].
type Details struct {
	Size       float64 `json:"size"`
	Clarity    float64 `json:"clarity"`
	Centering  float64 `json:"centering"`
	Brightness float64 `json:"brightness"`
}

// Score is the capture quality result for one detection.
type Score struct {
	Confidence float64 `json:"confidence"`
	Details    Details `json:"details"`
}

// Estimator scores detections. The gains map raw measurements onto [0, 1]
// and are empirically chosen configuration, not fixed law.
type Estimator struct {
	SizeGain    float64
	ClarityGain float64
}

// NewEstimator creates an Estimator with the given gains.
func NewEstimator(sizeGain, clarityGain float64) *Estimator {
	return &Estimator{SizeGain: sizeGain, ClarityGain: clarityGain}
}

// Estimate scores a detection from the winning rectangle, the source image
// dimensions and the canonical grayscale sample.
func (e *Estimator) Estimate(rect imaging.Rectangle, imageWidth, imageHeight int, gray *imaging.Gray) Score {
	sizeScore := math.Min(1, float64(rect.Area())/float64(imageWidth*imageHeight)*e.SizeGain)
	clarityScore := math.Min(1, LaplacianVariance(gray)/e.ClarityGain)

	// Distance of the face center from the image center, relative to the
	// farthest possible distance (a corner).
	faceCX := float64(rect.X) + float64(rect.Width)/2
	faceCY := float64(rect.Y) + float64(rect.Height)/2
	imgCX := float64(imageWidth) / 2
	imgCY := float64(imageHeight) / 2
	dist := math.Hypot(faceCX-imgCX, faceCY-imgCY)
	maxDist := math.Hypot(imgCX, imgCY)
	centeringScore := 0.0
	if maxDist > 0 {
		centeringScore = math.Max(0, 1-dist/maxDist)
	}

	confidence := math.Min(maxConfidence,
		(sizeScore*sizeWeight+clarityScore*clarityWeight+centeringScore*centeringWeight)*100)

	return Score{
		Confidence: confidence,
		Details: Details{
			Size:       sizeScore,
			Clarity:    clarityScore,
			Centering:  centeringScore,
			Brightness: meanLevel(gray),
		},
	}
}

// LaplacianVariance measures sharpness as the variance of the 4-neighbor
// Laplacian over the interior pixels. Blurry samples score low.
func LaplacianVariance(g *imaging.Gray) float64 {
	if g.Width < 3 || g.Height < 3 {
		return 0
	}

	var sum, sumSq float64
	n := float64((g.Width - 2) * (g.Height - 2))

	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			lap := float64(g.At(x-1, y)) + float64(g.At(x+1, y)) +
				float64(g.At(x, y-1)) + float64(g.At(x, y+1)) -
				4*float64(g.At(x, y))
			sum += lap
			sumSq += lap * lap
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}

func meanLevel(g *imaging.Gray) float64 {
	if len(g.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g.Pix {
		sum += float64(v)
	}
	return sum / float64(len(g.Pix))
}
