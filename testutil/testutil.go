package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/bowgo/descriptor"
)

// RNG is a seeded, goroutine-safe random source. Tests share one RNG so a
// single seed reproduces an entire failing run.
type RNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG creates a seeded RNG.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform int in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.r.Intn(n)
}

// Float32 returns a uniform float32 in [0, 1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.r.Float32()
}

// NormFloat64 returns a normally distributed float64.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.r.NormFloat64()
}

// FillUniform fills dst with uniform values in [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range dst {
		dst[i] = r.r.Float32()
	}
}

// DescriptorBatch generates numDesc uniform random descriptors.
func DescriptorBatch(rng *RNG, numDesc, dim int) *descriptor.Batch {
	b, err := descriptor.NewBatch(dim)
	if err != nil {
		panic(err)
	}
	row := make([]float32, dim)
	for i := 0; i < numDesc; i++ {
		rng.FillUniform(row)
		if err := b.Append(row); err != nil {
			panic(err)
		}
	}
	return b
}

// ClusteredBatches generates numImages descriptor batches whose descriptors
// scatter around numClusters shared centers. Images drawing from the same
// centers look alike under BoW scoring, which gives retrieval tests a ground
// truth to assert against.
func ClusteredBatches(rng *RNG, numImages, descPerImage, dim, numClusters int, spread float64) []*descriptor.Batch {
	centers := make([][]float32, numClusters)
	for c := range centers {
		centers[c] = make([]float32, dim)
		rng.FillUniform(centers[c])
	}

	batches := make([]*descriptor.Batch, numImages)
	row := make([]float32, dim)
	for img := range batches {
		b, err := descriptor.NewBatch(dim)
		if err != nil {
			panic(err)
		}
		for i := 0; i < descPerImage; i++ {
			center := centers[rng.Intn(numClusters)]
			for d := range row {
				row[d] = center[d] + float32(rng.NormFloat64()*spread)
			}
			if err := b.Append(row); err != nil {
				panic(err)
			}
		}
		batches[img] = b
	}
	return batches
}
