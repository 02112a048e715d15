package bow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l1Normalized(entries ...Entry) Vector {
	v := Vector(entries)
	v.Normalize(NormL1)
	return v
}

func l2Normalized(entries ...Entry) Vector {
	v := Vector(entries)
	v.Normalize(NormL2)
	return v
}

func TestScoreL1SelfSimilarity(t *testing.T) {
	v := l1Normalized(Entry{0, 1}, Entry{3, 2}, Entry{8, 1})
	assert.InDelta(t, 1.0, ScoreL1(v, v), 1e-6)
}

func TestScoreL1Disjoint(t *testing.T) {
	a := l1Normalized(Entry{0, 1}, Entry{1, 1})
	b := l1Normalized(Entry{2, 1}, Entry{3, 1})
	assert.Equal(t, float32(0), ScoreL1(a, b))
}

func TestScoreL1Partial(t *testing.T) {
	a := l1Normalized(Entry{0, 1}, Entry{1, 1})
	b := l1Normalized(Entry{1, 1}, Entry{2, 1})
	// Shared word 1 with weight 0.5 each contributes min(0.5,0.5).
	assert.InDelta(t, 0.5, ScoreL1(a, b), 1e-6)
}

func TestScoreL2SelfSimilarity(t *testing.T) {
	v := l2Normalized(Entry{0, 1}, Entry{5, 3})
	assert.InDelta(t, 1.0, ScoreL2(v, v), 1e-6)
}

func TestScoreL2Disjoint(t *testing.T) {
	a := l2Normalized(Entry{0, 1})
	b := l2Normalized(Entry{1, 1})
	assert.Equal(t, float32(0), ScoreL2(a, b))
}

func TestScoreDot(t *testing.T) {
	a := Vector{{0, 2}, {1, 3}}
	b := Vector{{1, 4}, {2, 5}}
	assert.Equal(t, float32(12), ScoreDot(a, b))
}

func TestScoreChiSquareSelfSimilarity(t *testing.T) {
	v := l1Normalized(Entry{0, 1}, Entry{4, 3})
	// Sum of 2*w*w/(2w) = sum of w = 1 for an L1-normalized vector.
	assert.InDelta(t, 1.0, ScoreChiSquare(v, v), 1e-6)
}

func TestScoreChiSquareDisjoint(t *testing.T) {
	a := l1Normalized(Entry{0, 1})
	b := l1Normalized(Entry{1, 1})
	assert.Equal(t, float32(0), ScoreChiSquare(a, b))
}

func TestProvider(t *testing.T) {
	for _, s := range []ScoringType{ScoringL1, ScoringL2, ScoringDot, ScoringChiSquare} {
		fn, err := Provider(s)
		require.NoError(t, err)
		require.NotNil(t, fn)
	}
	_, err := Provider(ScoringType(42))
	assert.Error(t, err)
}

func TestScoringNorm(t *testing.T) {
	assert.Equal(t, NormL1, ScoringL1.Norm())
	assert.Equal(t, NormL2, ScoringL2.Norm())
	assert.Equal(t, NormNone, ScoringDot.Norm())
	assert.Equal(t, NormL1, ScoringChiSquare.Norm())
}

func TestScoringValid(t *testing.T) {
	assert.True(t, ScoringL1.Valid())
	assert.True(t, ScoringChiSquare.Valid())
	assert.False(t, ScoringType(-1).Valid())
	assert.False(t, ScoringType(4).Valid())
}

func TestWeightingFlags(t *testing.T) {
	assert.True(t, WeightingTFIDF.UsesIDF())
	assert.True(t, WeightingIDF.UsesIDF())
	assert.False(t, WeightingTF.UsesIDF())
	assert.False(t, WeightingBinary.UsesIDF())

	assert.False(t, WeightingTFIDF.Presence())
	assert.False(t, WeightingTF.Presence())
	assert.True(t, WeightingIDF.Presence())
	assert.True(t, WeightingBinary.Presence())

	assert.True(t, WeightingTFIDF.Valid())
	assert.False(t, WeightingType(9).Valid())
}
