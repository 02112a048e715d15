package bow

import (
	"fmt"
	"math"
)

// ScoringType selects the similarity measure used to compare BoW vectors.
//
// The set of schemes is fixed and known in advance, so selection is an
// enumerated strategy resolved once via Provider, not open-ended dispatch.
type ScoringType int

const (
	// ScoringL1 scores via L1 distance between L1-normalized vectors,
	// mapped into [0,1] (1 = identical, 0 = disjoint).
	ScoringL1 ScoringType = iota
	// ScoringL2 scores via L2 distance between L2-normalized vectors,
	// mapped into [0,1].
	ScoringL2
	// ScoringDot is the plain dot product (cosine for normalized input).
	// Vectors are left unnormalized and scaled by descriptor count instead.
	ScoringDot
	// ScoringChiSquare scores via the chi-squared kernel over
	// L1-normalized vectors, in [0,1].
	ScoringChiSquare
)

func (s ScoringType) String() string {
	switch s {
	case ScoringL1:
		return "L1"
	case ScoringL2:
		return "L2"
	case ScoringDot:
		return "Dot"
	case ScoringChiSquare:
		return "ChiSquare"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Valid reports whether s names a known scoring scheme.
func (s ScoringType) Valid() bool {
	return s >= ScoringL1 && s <= ScoringChiSquare
}

// Norm returns the vector norm that vectors must carry for this scoring
// scheme. Transform applies it; scoring a vector built under a different
// norm is a configuration error.
func (s ScoringType) Norm() Norm {
	switch s {
	case ScoringL2:
		return NormL2
	case ScoringDot:
		return NormNone
	default:
		return NormL1
	}
}

// ScoreFunc computes the similarity of two sparse vectors.
type ScoreFunc func(a, b Vector) float32

// Provider returns the scoring function for the given scheme.
func Provider(s ScoringType) (ScoreFunc, error) {
	switch s {
	case ScoringL1:
		return ScoreL1, nil
	case ScoringL2:
		return ScoreL2, nil
	case ScoringDot:
		return ScoreDot, nil
	case ScoringChiSquare:
		return ScoreChiSquare, nil
	default:
		return nil, fmt.Errorf("unsupported scoring type: %v", s)
	}
}

// mergeJoin calls fn for every word present in both vectors.
func mergeJoin(a, b Vector, fn func(aw, bw float32)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Word == b[j].Word:
			fn(a[i].Weight, b[j].Weight)
			i++
			j++
		case a[i].Word < b[j].Word:
			i++
		default:
			j++
		}
	}
}

// ScoreL1 scores two L1-normalized vectors in [0,1].
//
// Uses the identity |x-y| - |x| - |y| = -2*min(x,y) for x,y >= 0, so only
// words present in both vectors contribute.
func ScoreL1(a, b Vector) float32 {
	var sum float64
	mergeJoin(a, b, func(aw, bw float32) {
		sum += math.Abs(float64(aw)-float64(bw)) - math.Abs(float64(aw)) - math.Abs(float64(bw))
	})
	// sum is in [-2, 0]; identical vectors reach -2.
	return float32(-sum / 2)
}

// ScoreL2 scores two L2-normalized vectors in [0,1] via their dot product.
func ScoreL2(a, b Vector) float32 {
	var dot float64
	mergeJoin(a, b, func(aw, bw float32) {
		dot += float64(aw) * float64(bw)
	})
	if dot >= 1 {
		return 1
	}
	return float32(1 - math.Sqrt(1-dot))
}

// ScoreDot is the plain dot product of two vectors.
func ScoreDot(a, b Vector) float32 {
	var dot float64
	mergeJoin(a, b, func(aw, bw float32) {
		dot += float64(aw) * float64(bw)
	})
	return float32(dot)
}

// ScoreChiSquare scores two L1-normalized vectors in [0,1] with the
// chi-squared kernel.
func ScoreChiSquare(a, b Vector) float32 {
	var sum float64
	mergeJoin(a, b, func(aw, bw float32) {
		d := float64(aw) + float64(bw)
		if d > 0 {
			sum += 2 * float64(aw) * float64(bw) / d
		}
	})
	return float32(sum)
}

// WeightingType selects how leaf weights and transform accumulation behave.
type WeightingType int

const (
	// WeightingTFIDF accumulates term frequency scaled by inverse document
	// frequency (the default, and usually the best retrieval quality).
	WeightingTFIDF WeightingType = iota
	// WeightingTF accumulates raw term frequency; all leaf weights are 1.
	WeightingTF
	// WeightingIDF records word presence weighted by inverse document
	// frequency.
	WeightingIDF
	// WeightingBinary records bare word presence; all leaf weights are 1.
	WeightingBinary
)

func (w WeightingType) String() string {
	switch w {
	case WeightingTFIDF:
		return "TF-IDF"
	case WeightingTF:
		return "TF"
	case WeightingIDF:
		return "IDF"
	case WeightingBinary:
		return "Binary"
	default:
		return fmt.Sprintf("Unknown(%d)", w)
	}
}

// Valid reports whether w names a known weighting scheme.
func (w WeightingType) Valid() bool {
	return w >= WeightingTFIDF && w <= WeightingBinary
}

// UsesIDF reports whether leaf weights carry inverse document frequency.
func (w WeightingType) UsesIDF() bool {
	return w == WeightingTFIDF || w == WeightingIDF
}

// Presence reports whether transforms record bare word presence rather than
// accumulating term frequency.
func (w WeightingType) Presence() bool {
	return w == WeightingIDF || w == WeightingBinary
}
