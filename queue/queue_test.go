package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopNKeepsBest(t *testing.T) {
	q := NewTopN(3)
	for _, it := range []Item{
		{Entry: 0, Score: 0.1},
		{Entry: 1, Score: 0.9},
		{Entry: 2, Score: 0.5},
		{Entry: 3, Score: 0.7},
		{Entry: 4, Score: 0.3},
	} {
		q.Push(it)
	}

	results := q.Results()
	require.Len(t, results, 3)
	assert.Equal(t, Item{Entry: 1, Score: 0.9}, results[0])
	assert.Equal(t, Item{Entry: 3, Score: 0.7}, results[1])
	assert.Equal(t, Item{Entry: 2, Score: 0.5}, results[2])
}

func TestTopNFewerCandidates(t *testing.T) {
	q := NewTopN(10)
	q.Push(Item{Entry: 1, Score: 0.2})
	q.Push(Item{Entry: 0, Score: 0.8})

	results := q.Results()
	require.Len(t, results, 2)
	assert.Equal(t, uint32(0), results[0].Entry)
	assert.Equal(t, uint32(1), results[1].Entry)
}

func TestTopNTieBreakLowerEntry(t *testing.T) {
	q := NewTopN(2)
	q.Push(Item{Entry: 5, Score: 0.5})
	q.Push(Item{Entry: 2, Score: 0.5})
	q.Push(Item{Entry: 9, Score: 0.5})

	results := q.Results()
	require.Len(t, results, 2)
	// Equal scores: lower ids win retention and ordering.
	assert.Equal(t, uint32(2), results[0].Entry)
	assert.Equal(t, uint32(5), results[1].Entry)
}

func TestTopNLen(t *testing.T) {
	q := NewTopN(2)
	assert.Equal(t, 0, q.Len())
	q.Push(Item{Entry: 0, Score: 1})
	assert.Equal(t, 1, q.Len())
	q.Push(Item{Entry: 1, Score: 2})
	q.Push(Item{Entry: 2, Score: 3})
	assert.Equal(t, 2, q.Len())
}

func TestTopNOrderIndependent(t *testing.T) {
	items := []Item{
		{Entry: 0, Score: 0.3},
		{Entry: 1, Score: 0.3},
		{Entry: 2, Score: 0.9},
		{Entry: 3, Score: 0.1},
	}

	forward := NewTopN(3)
	for _, it := range items {
		forward.Push(it)
	}
	backward := NewTopN(3)
	for i := len(items) - 1; i >= 0; i-- {
		backward.Push(items[i])
	}

	assert.Equal(t, forward.Results(), backward.Results())
}
