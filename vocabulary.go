package bowgo

import (
	"fmt"

	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/distance"
)

// NodeID indexes the vocabulary's flat node arena. The root is node 0.
type NodeID uint32

// node is one cluster centroid in the vocabulary tree. Children occupy a
// contiguous id range so the arena serializes as plain columns.
type node struct {
	parent     NodeID
	childFirst NodeID
	childCount uint32
	weight     float32    // leaves only
	word       bow.WordID // leaves only
}

func (n *node) isLeaf() bool { return n.childCount == 0 }

// Vocabulary is a hierarchical visual vocabulary: descriptors are routed
// from the root to a leaf ("visual word") by nearest-centroid descent.
//
// A Vocabulary is immutable once trained or loaded (StopWords being the one
// documented exception, to be applied before the vocabulary is shared) and
// may be read concurrently without locking. Multiple databases may share a
// single vocabulary.
type Vocabulary struct {
	branching int
	levels    int
	dim       int
	weighting bow.WeightingType
	scoring   bow.ScoringType
	metric    distance.Metric

	nodes     []node
	centroids []float32 // flattened, len(nodes) * dim
	words     []NodeID  // word id -> leaf node id

	distFunc  distance.Func
	scoreFunc bow.ScoreFunc
}

// Branching returns the configured branching factor k.
func (v *Vocabulary) Branching() int { return v.branching }

// Levels returns the configured tree depth L.
func (v *Vocabulary) Levels() int { return v.levels }

// Dim returns the descriptor dimensionality the tree was trained on.
func (v *Vocabulary) Dim() int { return v.dim }

// Weighting returns the weighting scheme.
func (v *Vocabulary) Weighting() bow.WeightingType { return v.weighting }

// Scoring returns the scoring scheme.
func (v *Vocabulary) Scoring() bow.ScoringType { return v.scoring }

// Metric returns the descriptor-space distance metric.
func (v *Vocabulary) Metric() distance.Metric { return v.metric }

// Words returns the number of visual words (leaves).
func (v *Vocabulary) Words() int { return len(v.words) }

// Empty reports whether the vocabulary has no words.
func (v *Vocabulary) Empty() bool { return v == nil || len(v.words) == 0 }

// NumNodes returns the total node count of the tree.
func (v *Vocabulary) NumNodes() int { return len(v.nodes) }

// WordWeight returns the weight of a word, or 0 for out-of-range ids.
func (v *Vocabulary) WordWeight(w bow.WordID) float32 {
	if int(w) >= len(v.words) {
		return 0
	}
	return v.nodes[v.words[w]].weight
}

// Score compares two BoW vectors under the vocabulary's scoring scheme.
// Both vectors must have been produced by Transform on a vocabulary with
// the same scoring configuration.
func (v *Vocabulary) Score(a, b bow.Vector) float32 {
	return v.scoreFunc(a, b)
}

// StopWords zeroes the weight of every word with weight < minWeight, so
// that subsequent transforms skip those words. Returns the number of words
// stopped.
//
// StopWords mutates the tree and must be applied before the vocabulary is
// shared across goroutines or databases.
func (v *Vocabulary) StopWords(minWeight float32) int {
	stopped := 0
	for _, id := range v.words {
		n := &v.nodes[id]
		if n.weight != 0 && n.weight < minWeight {
			n.weight = 0
			stopped++
		}
	}
	return stopped
}

func (v *Vocabulary) String() string {
	return fmt.Sprintf("Vocabulary: k = %d, L = %d, Weighting = %s, Scoring = %s, Words = %d",
		v.branching, v.levels, v.weighting, v.scoring, len(v.words))
}

// centroid returns the centroid of a node as a view into the arena.
func (v *Vocabulary) centroid(id NodeID) []float32 {
	return v.centroids[int(id)*v.dim : (int(id)+1)*v.dim]
}

// descend routes one descriptor from the root to a leaf, returning the leaf
// and the node passed at stopLevel (for the direct index; stopLevel < 0
// disables tracking and returns the root). Descents that reach a leaf above
// stopLevel record the leaf itself.
//
// Each step compares against at most branching-factor child centroids, so a
// full descent costs O(k*L) comparisons instead of a linear scan over all
// words.
func (v *Vocabulary) descend(desc []float32, stopLevel int) (NodeID, NodeID) {
	cur := NodeID(0)
	at := NodeID(0)
	level := 0

	for !v.nodes[cur].isLeaf() {
		first := v.nodes[cur].childFirst
		count := v.nodes[cur].childCount

		best := first
		minDist := v.distFunc(desc, v.centroid(first))
		for c := first + 1; c < first+NodeID(count); c++ {
			if d := v.distFunc(desc, v.centroid(c)); d < minDist {
				minDist = d
				best = c
			}
		}

		cur = best
		level++
		if level <= stopLevel {
			at = cur
		}
	}
	return cur, at
}
