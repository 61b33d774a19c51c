package feature

import (
	"math"

	"github.com/MrCodeEU/faceprint/pkg/detect"
	"github.com/MrCodeEU/faceprint/pkg/imaging"
)

const (
	hogCellSize = 8
	hogBins     = 9
	hogBinWidth = 180.0 / hogBins
)

// gradientExtractor computes per-cell histograms of oriented gradients.
// Gradients come from 3×3 Sobel kernels; the sample is partitioned into
// non-overlapping 8×8 cells and each cell accumulates a 9-bin unsigned
// orientation histogram over [0°, 180°) weighted by gradient magnitude.
// Cell histograms are concatenated in row-major cell order.
type gradientExtractor struct{}

func (gradientExtractor) Name() string { return "gradient" }

func (gradientExtractor) Length() int { return GradientLength }

func (gradientExtractor) Extract(region *detect.FaceRegion) []float64 {
	g := region.Gray
	cellsPerRow := g.Width / hogCellSize
	out := make([]float64, GradientLength)

	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			gx := sobelX(g, x, y)
			gy := sobelY(g, x, y)
			magnitude := math.Sqrt(gx*gx + gy*gy)
			if magnitude == 0 {
				continue
			}

			// Fold the orientation into the unsigned range [0, 180).
			angle := math.Atan2(gy, gx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			if angle >= 180 {
				angle -= 180
			}
			bin := int(angle / hogBinWidth)
			if bin >= hogBins {
				bin = hogBins - 1
			}

			cell := (y/hogCellSize)*cellsPerRow + x/hogCellSize
			out[cell*hogBins+bin] += magnitude
		}
	}
	return out
}

func sobelX(g *imaging.Gray, x, y int) float64 {
	return float64(g.At(x+1, y-1)) - float64(g.At(x-1, y-1)) +
		2*(float64(g.At(x+1, y))-float64(g.At(x-1, y))) +
		float64(g.At(x+1, y+1)) - float64(g.At(x-1, y+1))
}

func sobelY(g *imaging.Gray, x, y int) float64 {
	return float64(g.At(x-1, y+1)) - float64(g.At(x-1, y-1)) +
		2*(float64(g.At(x, y+1))-float64(g.At(x, y-1))) +
		float64(g.At(x+1, y+1)) - float64(g.At(x+1, y-1))
}
