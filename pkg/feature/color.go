package feature

import "github.com/MrCodeEU/faceprint/pkg/detect"

const colorBins = 32

// colorExtractor builds a coarse 32-bin histogram per color channel of the
// color sample and appends three geometric scalars: the detected
// rectangle's height, width, and aspect ratio (height/width). The
// geometry comes from the winning rectangle in source coordinates, not
// from the fixed-size sample.
type colorExtractor struct{}

func (colorExtractor) Name() string { return "color" }

func (colorExtractor) Length() int { return ColorLength }

func (colorExtractor) Extract(region *detect.FaceRegion) []float64 {
	c := region.Color
	out := make([]float64, ColorLength)

	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			r, g, b := c.At(x, y)
			out[int(r)/8]++
			out[colorBins+int(g)/8]++
			out[2*colorBins+int(b)/8]++
		}
	}

	out[3*colorBins] = float64(region.Rect.Height)
	out[3*colorBins+1] = float64(region.Rect.Width)
	out[3*colorBins+2] = region.Rect.AspectRatio()
	return out
}
