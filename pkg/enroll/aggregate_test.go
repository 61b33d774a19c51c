package enroll

import (
	"errors"
	"math"
	"testing"

	"github.com/MrCodeEU/faceprint/pkg/feature"
)

const epsilon = 1e-9

func constSignature(length int, value float64) feature.Signature {
	sig := make(feature.Signature, length)
	for i := range sig {
		sig[i] = value
	}
	return sig
}

func TestAggregateMean(t *testing.T) {
	samples := []Sample{
		{Signature: constSignature(8, 0.2)},
		{Signature: constSignature(8, 0.4)},
	}

	outcome, err := Aggregate(samples)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(outcome.Signature) != 8 {
		t.Fatalf("Expected signature length 8, got %d", len(outcome.Signature))
	}
	for i, v := range outcome.Signature {
		if math.Abs(v-0.3) > epsilon {
			t.Errorf("Element %d: expected 0.3, got %f", i, v)
		}
	}
}

func TestAggregateSkipsFailures(t *testing.T) {
	samples := []Sample{
		{Signature: constSignature(8, 0.1)},
		{Err: errors.New("no face detected")},
		{Signature: constSignature(8, 0.3)},
		{Signature: constSignature(8, 0.5)},
	}

	outcome, err := Aggregate(samples)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if outcome.Successful != 3 {
		t.Errorf("Expected 3 successful samples, got %d", outcome.Successful)
	}
	if outcome.Skipped != 1 {
		t.Errorf("Expected 1 skipped sample, got %d", outcome.Skipped)
	}
	if outcome.Tag != TagExcellent {
		t.Errorf("Expected tag %q, got %q", TagExcellent, outcome.Tag)
	}
	if len(outcome.Failures) != 1 {
		t.Fatalf("Expected 1 failure message, got %d", len(outcome.Failures))
	}
	if outcome.Failures[0] != "sample 2: no face detected" {
		t.Errorf("Unexpected failure message: %q", outcome.Failures[0])
	}
	// Failed sample must not drag the mean down.
	for i, v := range outcome.Signature {
		if math.Abs(v-0.3) > epsilon {
			t.Errorf("Element %d: expected 0.3, got %f", i, v)
		}
	}
}

func TestAggregateTags(t *testing.T) {
	tests := []struct {
		name       string
		successful int
		expected   Tag
	}{
		{"one sample acceptable", 1, TagAcceptable},
		{"two samples good", 2, TagGood},
		{"three samples excellent", 3, TagExcellent},
		{"five samples excellent", 5, TagExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var samples []Sample
			for i := 0; i < tt.successful; i++ {
				samples = append(samples, Sample{Signature: constSignature(4, 0.5)})
			}
			outcome, err := Aggregate(samples)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if outcome.Tag != tt.expected {
				t.Errorf("Expected tag %q for %d samples, got %q", tt.expected, tt.successful, outcome.Tag)
			}
		})
	}
}

func TestAggregateAllFailed(t *testing.T) {
	samples := []Sample{
		{Err: errors.New("no face detected")},
		{Err: errors.New("multiple faces detected")},
	}

	_, err := Aggregate(samples)
	if !errors.Is(err, ErrNoUsableSamples) {
		t.Errorf("Expected ErrNoUsableSamples, got %v", err)
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	_, err := Aggregate(nil)
	if !errors.Is(err, ErrNoUsableSamples) {
		t.Errorf("Expected ErrNoUsableSamples for empty batch, got %v", err)
	}
}
