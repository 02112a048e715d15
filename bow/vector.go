// Package bow implements sparse bag-of-visual-words vectors and the scoring
// strategies used to compare them.
//
// A Vector is a sorted sparse mapping from word id to a non-negative weight;
// words not present implicitly have weight zero. Sorting by word id lets
// every scoring function run as a merge-join over the two operands without
// ever materializing a dense vocabulary-sized vector.
package bow

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// WordID identifies a leaf ("visual word") of the vocabulary tree.
type WordID uint32

// Entry pairs a word with its accumulated weight.
type Entry struct {
	Word   WordID
	Weight float32
}

// Vector is a sparse BoW vector, sorted by ascending word id with no
// duplicate words. The zero-length vector represents an image with no
// descriptors.
type Vector []Entry

// Norm selects the vector norm used for normalization.
type Norm int

const (
	// NormNone leaves the vector unnormalized.
	NormNone Norm = iota
	// NormL1 scales the vector so its L1 norm is 1.
	NormL1
	// NormL2 scales the vector so its L2 norm is 1.
	NormL2
)

func (n Norm) String() string {
	switch n {
	case NormNone:
		return "None"
	case NormL1:
		return "L1"
	case NormL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", n)
	}
}

// Normalize scales v in place so that its norm equals 1.
// A zero vector is left unchanged (no division error).
func (v Vector) Normalize(n Norm) {
	if len(v) == 0 || n == NormNone {
		return
	}

	var norm float64
	switch n {
	case NormL1:
		for _, e := range v {
			norm += math.Abs(float64(e.Weight))
		}
	case NormL2:
		for _, e := range v {
			norm += float64(e.Weight) * float64(e.Weight)
		}
		norm = math.Sqrt(norm)
	}
	if norm == 0 {
		return
	}

	inv := float32(1 / norm)
	for i := range v {
		v[i].Weight *= inv
	}
}

// Scale multiplies every weight by s in place.
func (v Vector) Scale(s float32) {
	for i := range v {
		v[i].Weight *= s
	}
}

// Weight returns the weight of w, or 0 if the word is not present.
func (v Vector) Weight(w WordID) float32 {
	i := sort.Search(len(v), func(i int) bool { return v[i].Word >= w })
	if i < len(v) && v[i].Word == w {
		return v[i].Weight
	}
	return 0
}

// Equal reports whether two vectors hold identical entries.
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

func (v Vector) String() string {
	var sb strings.Builder
	sb.WriteByte('<')
	for i, e := range v {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d:%g", e.Word, e.Weight)
	}
	sb.WriteByte('>')
	return sb.String()
}

// Builder accumulates word weights while a descriptor batch is transformed,
// then emits a sorted, normalized Vector.
type Builder struct {
	weights map[WordID]float32
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{weights: make(map[WordID]float32)}
}

// Add accumulates weight for a word (term-frequency style).
func (b *Builder) Add(w WordID, weight float32) {
	b.weights[w] += weight
}

// Set records a word's weight once, ignoring repeats (presence style).
func (b *Builder) Set(w WordID, weight float32) {
	if _, ok := b.weights[w]; !ok {
		b.weights[w] = weight
	}
}

// Len returns the number of distinct words accumulated so far.
func (b *Builder) Len() int { return len(b.weights) }

// Vector emits the sorted vector, normalized under n.
func (b *Builder) Vector(n Norm) Vector {
	v := make(Vector, 0, len(b.weights))
	for w, weight := range b.weights {
		v = append(v, Entry{Word: w, Weight: weight})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Word < v[j].Word })
	v.Normalize(n)
	return v
}
