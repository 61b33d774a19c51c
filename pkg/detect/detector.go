// Package detect provides face region detection and selection.
// Detection is delegated to a pluggable FaceFinder; the default
// implementation wraps the pigo cascade classifier. The selector turns raw
// detector output into one canonical 128×128 face sample.
package detect

import (
	"errors"
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/MrCodeEU/faceprint/pkg/imaging"
	"github.com/MrCodeEU/faceprint/pkg/logging"
)

// Params is one detector parameterization. A Selector tries several Params
// in order, each more permissive than the last, before giving up.
type Params struct {
	ScaleFactor      float64
	ShiftFactor      float64
	MinSize          int
	MaxSize          int
	QualityThreshold float64
	ClusterOverlap   float64
}

// FaceFinder locates candidate face rectangles in a grayscale buffer.
// Implementations must be safe for concurrent use and must not retain or
// mutate the input buffer.
type FaceFinder interface {
	Detect(gray *imaging.Gray, p Params) []imaging.Rectangle
}

// ErrCascadeNotLoaded is returned when the classifier model is missing.
var ErrCascadeNotLoaded = errors.New("face cascade not loaded")

// PigoFinder implements FaceFinder using the pigo pixel-intensity
// comparison cascade. The unpacked classifier is immutable after New and
// shared across calls.
type PigoFinder struct {
	classifier *pigo.Pigo
}

// NewPigoFinder loads and unpacks a pigo cascade model file.
func NewPigoFinder(cascadePath string) (*PigoFinder, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade file: %w", err)
	}

	logging.Component("detect").Debugf("Loaded face cascade from: %s", cascadePath)
	return &PigoFinder{classifier: classifier}, nil
}

// Detect runs the cascade over the image and returns clustered face
// rectangles that pass the detection quality threshold.
func (f *PigoFinder) Detect(gray *imaging.Gray, p Params) []imaging.Rectangle {
	if f.classifier == nil {
		return nil
	}

	cParams := pigo.CascadeParams{
		MinSize:     p.MinSize,
		MaxSize:     p.MaxSize,
		ShiftFactor: p.ShiftFactor,
		ScaleFactor: p.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   gray.Height,
			Cols:   gray.Width,
			Dim:    gray.Width,
		},
	}

	dets := f.classifier.RunCascade(cParams, 0.0)
	dets = f.classifier.ClusterDetections(dets, p.ClusterOverlap)

	var rects []imaging.Rectangle
	for _, det := range dets {
		if float64(det.Q) < p.QualityThreshold {
			continue
		}
		r := imaging.Rectangle{
			X:      det.Col - det.Scale/2,
			Y:      det.Row - det.Scale/2,
			Width:  det.Scale,
			Height: det.Scale,
		}.Clamp(gray.Width, gray.Height)
		if r.Area() == 0 {
			continue
		}
		rects = append(rects, r)
	}
	return rects
}
