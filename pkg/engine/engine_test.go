package engine

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/MrCodeEU/faceprint/pkg/config"
	"github.com/MrCodeEU/faceprint/pkg/detect"
	"github.com/MrCodeEU/faceprint/pkg/enroll"
	"github.com/MrCodeEU/faceprint/pkg/feature"
	"github.com/MrCodeEU/faceprint/pkg/imaging"
)

// stubFinder reports one face covering the middle of any image whose
// top-left pixel is non-zero. Blank-corner images simulate detection
// failure.
type stubFinder struct{}

func (stubFinder) Detect(gray *imaging.Gray, p detect.Params) []imaging.Rectangle {
	if gray.At(0, 0) == 0 {
		return nil
	}
	return []imaging.Rectangle{{
		X:      gray.Width / 4,
		Y:      gray.Height / 4,
		Width:  gray.Width / 2,
		Height: gray.Height / 2,
	}}
}

// faceImage is a synthetic portrait: a light background with a darker
// textured patch in the middle so the descriptors get non-trivial input.
func faceImage(seed uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 320, 320))
	for y := 0; y < 320; y++ {
		for x := 0; x < 320; x++ {
			v := uint8(200)
			if x >= 80 && x < 240 && y >= 80 && y < 240 {
				v = uint8((x*7+y*13)%96) + seed
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// blankImage defeats the stub finder: its top-left pixel is zero.
func blankImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 320, 320))
}

func testEngine() *Engine {
	return New(config.DefaultConfig(), stubFinder{})
}

func TestEncode(t *testing.T) {
	e := testEngine()

	sig, score, err := e.Encode(faceImage(40))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(sig) != feature.SignatureLength {
		t.Errorf("Expected signature length %d, got %d", feature.SignatureLength, len(sig))
	}
	if score.Confidence <= 0 || score.Confidence > 95 {
		t.Errorf("Quality confidence out of range: %f", score.Confidence)
	}

	// Signature must be L2-normalized.
	var norm float64
	for _, v := range sig {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("Expected unit norm, got %f", math.Sqrt(norm))
	}
}

func TestEncodeDeterministic(t *testing.T) {
	e := testEngine()

	sig1, _, err := e.Encode(faceImage(40))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	sig2, _, err := e.Encode(faceImage(40))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for i := range sig1 {
		if sig1[i] != sig2[i] {
			t.Fatalf("Signatures differ at element %d: %f vs %f", i, sig1[i], sig2[i])
		}
	}
}

func TestEncodeNoFace(t *testing.T) {
	e := testEngine()

	_, _, err := e.Encode(blankImage())
	if !errors.Is(err, detect.ErrNoFaceDetected) {
		t.Errorf("Expected ErrNoFaceDetected, got %v", err)
	}
}

func TestCompareSameImage(t *testing.T) {
	e := testEngine()

	stored, _, err := e.Encode(faceImage(40))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	res, err := e.Compare(stored, faceImage(40), 0)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !res.IsMatch {
		t.Error("Image should match its own signature")
	}
	if res.Distance > 1e-9 {
		t.Errorf("Expected zero distance, got %f", res.Distance)
	}
	if res.Tolerance <= 0 {
		t.Errorf("Expected configured tolerance to apply, got %f", res.Tolerance)
	}
}

func TestCompareExplicitTolerance(t *testing.T) {
	e := testEngine()

	stored, _, err := e.Encode(faceImage(40))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	res, err := e.Compare(stored, faceImage(120), 0.0001)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if res.IsMatch {
		t.Error("Different textures should not match at a near-zero tolerance")
	}
}

func TestAggregate(t *testing.T) {
	e := testEngine()

	outcome, err := e.Aggregate([]image.Image{
		faceImage(40),
		blankImage(),
		faceImage(42),
		faceImage(44),
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if outcome.Successful != 3 {
		t.Errorf("Expected 3 successful samples, got %d", outcome.Successful)
	}
	if outcome.Skipped != 1 {
		t.Errorf("Expected 1 skipped sample, got %d", outcome.Skipped)
	}
	if outcome.Tag != enroll.TagExcellent {
		t.Errorf("Expected tag %q, got %q", enroll.TagExcellent, outcome.Tag)
	}
	if len(outcome.Signature) != feature.SignatureLength {
		t.Errorf("Expected signature length %d, got %d", feature.SignatureLength, len(outcome.Signature))
	}
}

func TestAggregateAllBlank(t *testing.T) {
	e := testEngine()

	_, err := e.Aggregate([]image.Image{blankImage(), blankImage()})
	if !errors.Is(err, enroll.ErrNoUsableSamples) {
		t.Errorf("Expected ErrNoUsableSamples, got %v", err)
	}
}

func TestFindBestMatch(t *testing.T) {
	e := testEngine()

	near, _, err := e.Encode(faceImage(40))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	far, _, err := e.Encode(faceImage(120))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	idx, res, err := e.FindBestMatch([]feature.Signature{far, near}, faceImage(40))
	if err != nil {
		t.Fatalf("FindBestMatch failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("Expected best match at index 1, got %d", idx)
	}
	if res.Distance > 1e-9 {
		t.Errorf("Expected zero distance to identical image, got %f", res.Distance)
	}
}
