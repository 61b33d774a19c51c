package feature

import "github.com/MrCodeEU/faceprint/pkg/detect"

// ringOffsets enumerates the 8 ring neighbors clockwise from the top-left.
// The order fixes the bit layout of the texture codes and must not change.
var ringOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{1, 0},
	{1, 1}, {0, 1}, {-1, 1},
	{-1, 0},
}

// textureExtractor computes a local binary pattern histogram over the
// grayscale sample. Every interior pixel is encoded as an 8-bit code, one
// bit per ring neighbor, set when the neighbor is brighter than the
// center. A flat region therefore encodes as code 0.
type textureExtractor struct{}

func (textureExtractor) Name() string { return "texture" }

func (textureExtractor) Length() int { return TextureLength }

func (textureExtractor) Extract(region *detect.FaceRegion) []float64 {
	g := region.Gray
	hist := make([]float64, TextureLength)

	// A 1-pixel border is excluded so every neighbor lookup stays in bounds.
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			center := g.At(x, y)
			var code uint8
			for k, off := range ringOffsets {
				if g.At(x+off[0], y+off[1]) > center {
					code |= 1 << uint(k)
				}
			}
			hist[code]++
		}
	}

	// Raw counts; overall scale is handled by signature normalization.
	return hist
}
