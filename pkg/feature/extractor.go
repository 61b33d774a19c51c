// Package feature implements the face descriptor extractors and the
// signature builder. Five independent extractors read the same canonical
// face sample and emit fixed-length float vectors; the builder concatenates
// them in canonical order and L2-normalizes the result.
//
// The extractor set is closed and order-sensitive: signature layout is a
// compile-time schema. Changing any extractor's output length or the
// registry order breaks comparability with previously stored signatures.
package feature

import (
	"sync"

	"github.com/MrCodeEU/faceprint/pkg/detect"
)

// Descriptor lengths. These are design constants, not tunables: all
// signatures ever compared against each other must share this exact layout.
const (
	TextureLength  = 256
	GradientLength = hogBins * (detect.SampleSize / hogCellSize) * (detect.SampleSize / hogCellSize)
	FilterLength   = gaborOrientations * gaborWavelengthCount * 2
	RegionLength   = 2 * 2 * 4
	ColorLength    = 3*colorBins + 3

	// SignatureLength is the total signature schema length L.
	SignatureLength = TextureLength + GradientLength + FilterLength + RegionLength + ColorLength
)

// Extractor computes one descriptor from a canonical face sample.
// Implementations are pure functions: they must not mutate the region and
// must be safe to run concurrently with the other extractors.
type Extractor interface {
	// Name identifies the descriptor in logs and diagnostics.
	Name() string
	// Length is the fixed output length, independent of pixel content.
	Length() int
	// Extract computes the descriptor values.
	Extract(region *detect.FaceRegion) []float64
}

// registry holds the extractors in canonical concatenation order.
// Immutable after init.
var registry = []Extractor{
	textureExtractor{},
	gradientExtractor{},
	filterBankExtractor{},
	regionStatsExtractor{},
	colorExtractor{},
}

// Extractors returns the extractor set in canonical order.
func Extractors() []Extractor {
	return registry
}

// Build runs all extractors over the face sample and assembles the
// normalized signature. The extractors run concurrently; outputs land in
// fixed slots so the concatenation order never depends on scheduling.
func Build(region *detect.FaceRegion) Signature {
	outputs := make([][]float64, len(registry))

	var wg sync.WaitGroup
	for i, ex := range registry {
		wg.Add(1)
		go func(slot int, ex Extractor) {
			defer wg.Done()
			outputs[slot] = ex.Extract(region)
		}(i, ex)
	}
	wg.Wait()

	sig := make(Signature, 0, SignatureLength)
	for _, out := range outputs {
		sig = append(sig, out...)
	}
	return Normalize(sig)
}
