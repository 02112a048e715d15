// Package distance provides distance calculations in descriptor space.
package distance

import (
	"fmt"
	"math"
)

// Metric represents the distance metric used for descriptor comparison.
type Metric int

const (
	// MetricL2 is the squared Euclidean distance (default).
	MetricL2 Metric = iota
	// MetricL1 is the Manhattan distance, closer to Hamming behavior for
	// bit-expanded binary descriptors.
	MetricL1
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricL1:
		return "L1"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
// Smaller values mean closer descriptors.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricL1:
		return L1, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L1 calculates the Manhattan distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func L1(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}
