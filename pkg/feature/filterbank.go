package feature

import (
	"math"

	"github.com/MrCodeEU/faceprint/pkg/detect"
)

const (
	gaborOrientations    = 4
	gaborWavelengthCount = 2
	gaborKernelRadius    = 4

	gaborGamma = 0.5
)

// gaborWavelengths are the two band-pass frequencies of the filter bank,
// expressed as wavelengths in pixels.
var gaborWavelengths = [gaborWavelengthCount]float64{4, 8}

type gaborKernel struct {
	weights [2*gaborKernelRadius + 1][2*gaborKernelRadius + 1]float64
}

// gaborBank holds the 4 orientations × 2 frequencies kernel set.
// Derived once at process start and never mutated afterwards.
var gaborBank = buildGaborBank()

func buildGaborBank() []gaborKernel {
	bank := make([]gaborKernel, 0, gaborOrientations*gaborWavelengthCount)
	for o := 0; o < gaborOrientations; o++ {
		theta := float64(o) * math.Pi / gaborOrientations
		sin, cos := math.Sin(theta), math.Cos(theta)
		for _, lambda := range gaborWavelengths {
			sigma := 0.56 * lambda
			var k gaborKernel
			for dy := -gaborKernelRadius; dy <= gaborKernelRadius; dy++ {
				for dx := -gaborKernelRadius; dx <= gaborKernelRadius; dx++ {
					// Rotate into the filter frame.
					xr := float64(dx)*cos + float64(dy)*sin
					yr := -float64(dx)*sin + float64(dy)*cos
					envelope := math.Exp(-(xr*xr + gaborGamma*gaborGamma*yr*yr) / (2 * sigma * sigma))
					carrier := math.Cos(2 * math.Pi * xr / lambda)
					k.weights[dy+gaborKernelRadius][dx+gaborKernelRadius] = envelope * carrier
				}
			}
			bank = append(bank, k)
		}
	}
	return bank
}

// filterBankExtractor convolves the grayscale sample with a bank of
// oriented band-pass filters at {0°, 45°, 90°, 135°} × two frequencies and
// records the mean and standard deviation of each filtered response.
type filterBankExtractor struct{}

func (filterBankExtractor) Name() string { return "filterbank" }

func (filterBankExtractor) Length() int { return FilterLength }

func (filterBankExtractor) Extract(region *detect.FaceRegion) []float64 {
	g := region.Gray
	out := make([]float64, 0, FilterLength)

	for _, kernel := range gaborBank {
		var sum, sumSq float64
		n := float64(g.Width * g.Height)

		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				var response float64
				for dy := -gaborKernelRadius; dy <= gaborKernelRadius; dy++ {
					for dx := -gaborKernelRadius; dx <= gaborKernelRadius; dx++ {
						response += kernel.weights[dy+gaborKernelRadius][dx+gaborKernelRadius] *
							float64(g.At(clampInt(x+dx, g.Width-1), clampInt(y+dy, g.Height-1)))
					}
				}
				sum += response
				sumSq += response * response
			}
		}

		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		out = append(out, mean, math.Sqrt(variance))
	}
	return out
}

func clampInt(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
