package bow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAdd(t *testing.T) {
	b := NewBuilder()
	b.Add(5, 0.5)
	b.Add(2, 1)
	b.Add(5, 0.5)
	assert.Equal(t, 2, b.Len())

	v := b.Vector(NormNone)
	require.Len(t, v, 2)
	// Sorted by word id.
	assert.Equal(t, WordID(2), v[0].Word)
	assert.Equal(t, float32(1), v[0].Weight)
	assert.Equal(t, WordID(5), v[1].Word)
	assert.Equal(t, float32(1), v[1].Weight)
}

func TestBuilderSet(t *testing.T) {
	b := NewBuilder()
	b.Set(3, 0.7)
	b.Set(3, 0.9) // repeats are ignored
	v := b.Vector(NormNone)
	require.Len(t, v, 1)
	assert.Equal(t, float32(0.7), v[0].Weight)
}

func TestNormalizeL1(t *testing.T) {
	v := Vector{{Word: 0, Weight: 1}, {Word: 3, Weight: 3}}
	v.Normalize(NormL1)
	assert.InDelta(t, 0.25, v[0].Weight, 1e-6)
	assert.InDelta(t, 0.75, v[1].Weight, 1e-6)
}

func TestNormalizeL2(t *testing.T) {
	v := Vector{{Word: 0, Weight: 3}, {Word: 1, Weight: 4}}
	v.Normalize(NormL2)
	assert.InDelta(t, 0.6, v[0].Weight, 1e-6)
	assert.InDelta(t, 0.8, v[1].Weight, 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Vector{{Word: 0, Weight: 0}}
	v.Normalize(NormL1)
	assert.Equal(t, float32(0), v[0].Weight)

	var empty Vector
	empty.Normalize(NormL2) // must not panic
}

func TestWeight(t *testing.T) {
	v := Vector{{Word: 2, Weight: 0.5}, {Word: 7, Weight: 0.5}}
	assert.Equal(t, float32(0.5), v.Weight(2))
	assert.Equal(t, float32(0.5), v.Weight(7))
	assert.Equal(t, float32(0), v.Weight(3))
	assert.Equal(t, float32(0), v.Weight(100))
}

func TestEqual(t *testing.T) {
	a := Vector{{Word: 1, Weight: 0.5}}
	b := Vector{{Word: 1, Weight: 0.5}}
	c := Vector{{Word: 1, Weight: 0.6}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestString(t *testing.T) {
	v := Vector{{Word: 1, Weight: 0.5}, {Word: 9, Weight: 1}}
	assert.Equal(t, "<1:0.5, 9:1>", v.String())
	assert.Equal(t, "<>", Vector{}.String())
}
