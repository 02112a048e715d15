// Package queue provides a bounded top-N selector for query results.
package queue

import (
	"container/heap"
	"sort"
)

// Item is one candidate result held by the queue.
type Item struct {
	Entry uint32  // Entry is the database entry id of the candidate.
	Score float32 // Score is the similarity of the candidate (higher is better).
}

// TopN keeps the n best items pushed so far without sorting the full
// candidate set. Ties on score are won by the lower entry id.
//
// Internally a min-heap: the worst retained item sits at the top and is
// evicted when a better candidate arrives.
type TopN struct {
	n     int
	items minHeap
}

// NewTopN creates a selector for the best n items. n must be positive.
func NewTopN(n int) *TopN {
	return &TopN{n: n, items: make(minHeap, 0, n)}
}

// Push offers a candidate to the selector.
func (q *TopN) Push(it Item) {
	if len(q.items) < q.n {
		heap.Push(&q.items, it)
		return
	}
	if worse(q.items[0], it) {
		q.items[0] = it
		heap.Fix(&q.items, 0)
	}
}

// Len returns the number of retained items.
func (q *TopN) Len() int { return len(q.items) }

// Results drains the selector, ordered by descending score and ascending
// entry id for equal scores.
func (q *TopN) Results() []Item {
	out := make([]Item, len(q.items))
	copy(out, q.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry < out[j].Entry
	})
	return out
}

// worse reports whether a ranks strictly below b.
func worse(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Entry > b.Entry
}

// minHeap orders items worst-first.
type minHeap []Item

// Compile time check to ensure minHeap satisfies the heap interface.
var _ heap.Interface = (*minHeap)(nil)

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return worse(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(Item)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
