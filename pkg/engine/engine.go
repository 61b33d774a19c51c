// Package engine wires detection, feature extraction, quality estimation
// and matching into the operations the CLI exposes: encode one image,
// compare a probe against a stored signature, aggregate an enrollment
// batch.
package engine

import (
	"fmt"
	"image"

	"github.com/MrCodeEU/faceprint/pkg/config"
	"github.com/MrCodeEU/faceprint/pkg/detect"
	"github.com/MrCodeEU/faceprint/pkg/enroll"
	"github.com/MrCodeEU/faceprint/pkg/feature"
	"github.com/MrCodeEU/faceprint/pkg/imaging"
	"github.com/MrCodeEU/faceprint/pkg/logging"
	"github.com/MrCodeEU/faceprint/pkg/match"
	"github.com/MrCodeEU/faceprint/pkg/quality"
)

// Engine runs the full encode/compare pipeline.
type Engine struct {
	cfg       *config.Config
	selector  *detect.Selector
	estimator *quality.Estimator
	matcher   *match.Matcher
}

// New builds an Engine from configuration and a face finder. The finder is
// injected so tests can run the pipeline without a cascade file.
func New(cfg *config.Config, finder detect.FaceFinder) *Engine {
	m := match.NewMatcher()
	m.BaseTolerance = cfg.Matching.Tolerance
	m.MaxExpectedDistance = cfg.Matching.MaxExpectedDistance
	m.EuclideanWeight = cfg.Matching.EuclideanWeight
	m.CosineWeight = cfg.Matching.CosineWeight
	m.ManhattanWeight = cfg.Matching.ManhattanWeight
	m.HighQualityBoost = cfg.Matching.HighQualityBoost
	m.LowQualityPenalty = cfg.Matching.LowQualityPenalty
	m.HighQualityThreshold = cfg.Matching.HighQualityThreshold
	m.LowQualityThreshold = cfg.Matching.LowQualityThreshold
	m.TruncateOnMismatch = cfg.Matching.TruncateOnMismatch

	return &Engine{
		cfg:       cfg,
		selector:  detect.NewSelector(finder, tiersFromConfig(cfg.Detection), cfg.Detection.StrictSingleFace),
		estimator: quality.NewEstimator(cfg.Quality.SizeGain, cfg.Quality.ClarityGain),
		matcher:   m,
	}
}

// tiersFromConfig expands the per-tier settings with the shared detection
// parameters into the detector's parameter sets.
func tiersFromConfig(dc config.DetectionConfig) []detect.Params {
	tiers := make([]detect.Params, len(dc.Tiers))
	for i, t := range dc.Tiers {
		tiers[i] = detect.Params{
			ScaleFactor:      t.ScaleFactor,
			ShiftFactor:      dc.ShiftFactor,
			MinSize:          t.MinSize,
			MaxSize:          dc.MaxSize,
			QualityThreshold: t.QualityThreshold,
			ClusterOverlap:   dc.ClusterOverlap,
		}
	}
	return tiers
}

// Encode extracts the face signature and capture quality from one image.
func (e *Engine) Encode(img image.Image) (feature.Signature, *quality.Score, error) {
	rgb := imaging.FromImage(img)
	gray := rgb.Grayscale()

	region, err := e.selector.Select(gray, rgb)
	if err != nil {
		return nil, nil, err
	}

	sig := feature.Build(region)
	score := e.estimator.Estimate(region.Rect, gray.Width, gray.Height, region.Gray)

	logging.Component("engine").Debugf("Encoded face at %dx%d, quality %.1f",
		region.Rect.Width, region.Rect.Height, score.Confidence)
	return sig, &score, nil
}

// Compare encodes the probe image and compares it against a stored
// signature. A tolerance of zero or less selects the configured default.
func (e *Engine) Compare(stored feature.Signature, img image.Image, tolerance float64) (*match.Result, error) {
	probe, score, err := e.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode probe image: %w", err)
	}

	if tolerance <= 0 {
		tolerance = e.cfg.Matching.Tolerance
	}
	return e.matcher.CompareWithTolerance(stored, probe, tolerance, score.Confidence)
}

// Aggregate encodes each image in a batch and merges the results into one
// enrollment outcome. Images that fail to encode are skipped; the batch
// fails only if every image does.
func (e *Engine) Aggregate(images []image.Image) (*enroll.Outcome, error) {
	samples := make([]enroll.Sample, len(images))
	for i, img := range images {
		sig, _, err := e.Encode(img)
		samples[i] = enroll.Sample{Signature: sig, Err: err}
	}
	return enroll.Aggregate(samples)
}

// FindBestMatch encodes the probe image and compares it against every
// stored signature, returning the index of the closest one.
func (e *Engine) FindBestMatch(gallery []feature.Signature, img image.Image) (int, *match.Result, error) {
	probe, score, err := e.Encode(img)
	if err != nil {
		return -1, nil, fmt.Errorf("failed to encode probe image: %w", err)
	}
	return e.matcher.FindBestMatch(probe, gallery, score.Confidence)
}
