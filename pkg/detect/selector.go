package detect

import (
	"errors"

	"github.com/MrCodeEU/faceprint/pkg/imaging"
	"github.com/MrCodeEU/faceprint/pkg/logging"
)

// SampleSize is the canonical face sample edge length. Every descriptor
// length is derived from it, so it must never change between encodings that
// are compared against each other.
const SampleSize = 128

// ErrNoFaceDetected is returned when no face is found after every
// detection tier has been tried.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrMultipleFaces is returned in strict single-face mode when more than
// one candidate survives detection.
var ErrMultipleFaces = errors.New("multiple faces detected")

// FaceRegion is the canonical face sample: the winning rectangle in source
// image coordinates plus grayscale and color crops resized to
// SampleSize×SampleSize.
type FaceRegion struct {
	Rect  imaging.Rectangle
	Gray  *imaging.Gray
	Color *imaging.RGB
}

// Selector picks one canonical face region from detector output.
type Selector struct {
	finder       FaceFinder
	tiers        []Params
	strictSingle bool
}

// NewSelector creates a Selector. The tiers are attempted in order; the
// contract requires at least three progressively permissive tiers, which
// the config layer validates.
func NewSelector(finder FaceFinder, tiers []Params, strictSingle bool) *Selector {
	return &Selector{finder: finder, tiers: tiers, strictSingle: strictSingle}
}

// Select detects faces in the image, picks the winning rectangle, pads and
// clamps it, and returns the canonical face sample. Pure function of its
// inputs; the source buffers are not modified.
func (s *Selector) Select(gray *imaging.Gray, color *imaging.RGB) (*FaceRegion, error) {
	log := logging.Component("detect")

	var candidates []imaging.Rectangle
	for i, tier := range s.tiers {
		candidates = s.finder.Detect(gray, tier)
		if len(candidates) > 0 {
			log.Debugf("Tier %d found %d candidate(s)", i+1, len(candidates))
			break
		}
		log.Debugf("Tier %d found no faces, relaxing parameters", i+1)
	}

	if len(candidates) == 0 {
		return nil, ErrNoFaceDetected
	}
	if s.strictSingle && len(candidates) > 1 {
		return nil, ErrMultipleFaces
	}

	winner := largest(candidates)

	// Pad symmetrically so the sample keeps some context around the face,
	// then clamp so the crop never reads outside the source buffer.
	margin := min(winner.Width, winner.Height) / 4
	if margin < 20 {
		margin = 20
	}
	padded := winner.Pad(margin).Clamp(gray.Width, gray.Height)

	region := &FaceRegion{
		Rect:  winner,
		Gray:  gray.Crop(padded).Resize(SampleSize, SampleSize),
		Color: color.Crop(padded).Resize(SampleSize, SampleSize),
	}
	return region, nil
}

// largest returns the rectangle with the greatest area. Ties are broken in
// favor of the first-encountered rectangle so selection is deterministic.
func largest(rects []imaging.Rectangle) imaging.Rectangle {
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Area() > best.Area() {
			best = r
		}
	}
	return best
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
