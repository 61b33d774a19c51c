package feature

import (
	"math"

	"github.com/MrCodeEU/faceprint/pkg/detect"
)

// regionStatsExtractor partitions the grayscale sample into a 2×2 grid of
// quadrants and emits (mean, stddev, max, min) per quadrant, row-major.
// The quadrant partition is a compile-time choice; signatures built with a
// different partition are not comparable.
type regionStatsExtractor struct{}

func (regionStatsExtractor) Name() string { return "regions" }

func (regionStatsExtractor) Length() int { return RegionLength }

func (regionStatsExtractor) Extract(region *detect.FaceRegion) []float64 {
	g := region.Gray
	halfW, halfH := g.Width/2, g.Height/2
	out := make([]float64, 0, RegionLength)

	for qy := 0; qy < 2; qy++ {
		for qx := 0; qx < 2; qx++ {
			var sum, sumSq float64
			minV, maxV := 255.0, 0.0

			for y := qy * halfH; y < (qy+1)*halfH; y++ {
				for x := qx * halfW; x < (qx+1)*halfW; x++ {
					v := float64(g.At(x, y))
					sum += v
					sumSq += v * v
					if v < minV {
						minV = v
					}
					if v > maxV {
						maxV = v
					}
				}
			}

			n := float64(halfW * halfH)
			mean := sum / n
			variance := sumSq/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			out = append(out, mean, math.Sqrt(variance), maxV, minV)
		}
	}
	return out
}
