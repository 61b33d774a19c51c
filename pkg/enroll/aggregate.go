// Package enroll turns a batch of capture attempts into a single stored
// signature. Averaging several samples smooths out per-capture noise from
// lighting and pose.
package enroll

import (
	"errors"
	"fmt"

	"github.com/MrCodeEU/faceprint/pkg/feature"
	"github.com/MrCodeEU/faceprint/pkg/logging"
)

// ErrNoUsableSamples is returned when every sample in a batch failed.
var ErrNoUsableSamples = errors.New("no usable samples in enrollment batch")

// Tag grades an enrollment by how many samples contributed to it.
type Tag string

const (
	// TagExcellent means three or more samples contributed.
	TagExcellent Tag = "excellent"
	// TagGood means exactly two samples contributed.
	TagGood Tag = "good"
	// TagAcceptable means a single sample contributed.
	TagAcceptable Tag = "acceptable"
)

// Sample is one capture attempt: either a signature or the error that
// prevented one.
type Sample struct {
	Signature feature.Signature
	Err       error
}

// Outcome is the result of aggregating a batch of samples.
type Outcome struct {
	// Signature is the element-wise mean of the successful samples.
	Signature feature.Signature
	// Successful and Skipped count the samples that did and did not
	// contribute.
	Successful int
	Skipped    int
	// Tag grades the enrollment by sample count.
	Tag Tag
	// Failures describes each skipped sample, in batch order.
	Failures []string
}

// Aggregate merges a batch of samples into one enrollment outcome. Failed
// samples are skipped rather than aborting the batch; only a batch with no
// successful sample at all is an error.
func Aggregate(samples []Sample) (*Outcome, error) {
	log := logging.Component("enroll")

	var usable []feature.Signature
	var failures []string
	for i, s := range samples {
		if s.Err != nil {
			failures = append(failures, fmt.Sprintf("sample %d: %v", i+1, s.Err))
			log.Debugf("Skipping sample %d: %v", i+1, s.Err)
			continue
		}
		usable = append(usable, s.Signature)
	}

	if len(usable) == 0 {
		return nil, ErrNoUsableSamples
	}

	mean := feature.Mean(usable)
	if mean == nil {
		return nil, ErrNoUsableSamples
	}

	outcome := &Outcome{
		Signature:  mean,
		Successful: len(usable),
		Skipped:    len(failures),
		Tag:        gradeTag(len(usable)),
		Failures:   failures,
	}
	log.Infof("Aggregated %d of %d samples (%s)", outcome.Successful, len(samples), outcome.Tag)
	return outcome, nil
}

func gradeTag(successful int) Tag {
	switch {
	case successful >= 3:
		return TagExcellent
	case successful == 2:
		return TagGood
	default:
		return TagAcceptable
	}
}
