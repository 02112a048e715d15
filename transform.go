package bowgo

import (
	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/descriptor"
)

// FeatureVector is a direct index for one image: for each tree node at the
// configured level it lists the indices of the descriptors routed through
// that node, in ascending order.
type FeatureVector map[NodeID][]uint32

// Transform converts an image's descriptor batch into a BoW vector. Each
// descriptor is routed to its visual word and the word weights are combined
// according to the vocabulary's weighting scheme, then the vector is
// normalized as required by the scoring scheme.
//
// An empty batch yields an empty vector. Descriptors whose dimensionality
// does not match the vocabulary are rejected.
func (v *Vocabulary) Transform(batch *descriptor.Batch) (bow.Vector, error) {
	vec, _, err := v.transform(batch, -1)
	return vec, err
}

// TransformWithDirect is Transform plus a direct index recorded levelsUp
// levels above the leaves (0 records at the leaves themselves). Descriptors
// routed into a stopped word still appear in the direct index.
func (v *Vocabulary) TransformWithDirect(batch *descriptor.Batch, levelsUp int) (bow.Vector, FeatureVector, error) {
	if levelsUp < 0 {
		levelsUp = 0
	}
	stopLevel := v.levels - levelsUp
	if stopLevel < 0 {
		stopLevel = 0
	}
	return v.transform(batch, stopLevel)
}

func (v *Vocabulary) transform(batch *descriptor.Batch, stopLevel int) (bow.Vector, FeatureVector, error) {
	if v.Empty() {
		return nil, nil, ErrNoVocabulary
	}

	var direct FeatureVector
	if stopLevel >= 0 {
		direct = make(FeatureVector)
	}

	if batch == nil || batch.Len() == 0 {
		return bow.Vector{}, direct, nil
	}
	if batch.Dim() != v.dim {
		return nil, nil, &descriptor.ErrDimensionMismatch{Expected: v.dim, Actual: batch.Dim()}
	}

	n := batch.Len()
	presence := v.weighting.Presence()

	b := bow.NewBuilder()
	for i := 0; i < n; i++ {
		leaf, at := v.descend(batch.At(i), stopLevel)

		if direct != nil {
			direct[at] = append(direct[at], uint32(i))
		}

		w := v.nodes[leaf].weight
		if w == 0 {
			continue // stop word
		}

		word := v.nodes[leaf].word
		if presence {
			b.Set(word, w)
		} else {
			b.Add(word, w)
		}
	}

	vec := b.Vector(v.scoring.Norm())

	// Unnormalized term frequencies are scaled by the descriptor count, so
	// images of different richness stay comparable.
	if v.scoring.Norm() == bow.NormNone && !presence {
		vec.Scale(1 / float32(n))
	}

	return vec, direct, nil
}
