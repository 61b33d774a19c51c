package feature

import "math"

// Signature is a face encoding: a fixed-length vector of descriptor values.
// Signatures are immutable once built and may only be compared against
// signatures of the same schema length.
type Signature []float64

// Norm returns the Euclidean norm of the signature.
func (s Signature) Norm() float64 {
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit Euclidean norm and returns it. A
// zero-norm vector (degenerate all-zero sample) is returned unchanged;
// that case is defined behavior, not an error.
func Normalize(s Signature) Signature {
	norm := s.Norm()
	if norm == 0 {
		return s
	}
	for i := range s {
		s[i] /= norm
	}
	return s
}

// Mean computes the element-wise arithmetic mean of same-length
// signatures. Returns nil if the input is empty or lengths disagree.
func Mean(sigs []Signature) Signature {
	if len(sigs) == 0 {
		return nil
	}
	length := len(sigs[0])
	for _, s := range sigs[1:] {
		if len(s) != length {
			return nil
		}
	}

	avg := make(Signature, length)
	for _, s := range sigs {
		for i, v := range s {
			avg[i] += v
		}
	}
	n := float64(len(sigs))
	for i := range avg {
		avg[i] /= n
	}
	return avg
}
