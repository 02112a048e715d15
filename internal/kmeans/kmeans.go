package kmeans

import (
	"context"
	"math"
	"math/rand"

	"github.com/hupe1980/bowgo/distance"
)

// Result holds the outcome of one clustering run.
type Result struct {
	// Centroids is the flattened (k * dim) centroid matrix. K may be
	// smaller than requested when there were fewer distinct points than
	// clusters.
	Centroids []float32
	// Assignments maps each input vector to its centroid index.
	Assignments []int
	// K is the effective number of clusters.
	K int
}

// Train clusters the given flattened vectors into at most k groups using
// Lloyd's algorithm. Initial centroids are drawn from the data points via
// rng, so identical inputs and seeds produce identical clusterings.
//
// A cluster left empty after an update step is re-seeded with a random data
// point; this only nudges quality, never fails. If n <= k every vector
// becomes its own cluster.
func Train(ctx context.Context, vectors []float32, dim, k int, metric distance.Metric, maxIter int, rng *rand.Rand) (*Result, error) {
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	n := len(vectors) / dim
	if n <= k {
		res := &Result{
			Centroids:   append([]float32(nil), vectors...),
			Assignments: make([]int, n),
			K:           n,
		}
		for i := range res.Assignments {
			res.Assignments[i] = i
		}
		return res, nil
	}

	centroids := make([]float32, k*dim)
	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		copy(centroids[i*dim:(i+1)*dim], vectors[perm[i]*dim:(perm[i]+1)*dim])
	}

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i := 0; i < n; i++ {
			vec := vectors[i*dim : (i+1)*dim]
			best := nearest(vec, centroids, dim, k, distFunc)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed && iter > 0 {
			break
		}

		// Update step
		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			cluster := assignments[i]
			vec := vectors[i*dim : (i+1)*dim]
			for d := 0; d < dim; d++ {
				sums[cluster*dim+d] += vec[d]
			}
			counts[cluster]++
		}

		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				scale := 1.0 / float32(counts[j])
				for d := 0; d < dim; d++ {
					centroids[j*dim+d] = sums[j*dim+d] * scale
				}
			} else {
				// Re-seed empty cluster with a random point
				idx := rng.Intn(n)
				copy(centroids[j*dim:(j+1)*dim], vectors[idx*dim:(idx+1)*dim])
			}
		}
	}

	return &Result{Centroids: centroids, Assignments: assignments, K: k}, nil
}

// Assign finds the closest centroid for a vector.
func Assign(vec []float32, centroids []float32, dim int, metric distance.Metric) (int, error) {
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return -1, err
	}
	return nearest(vec, centroids, dim, len(centroids)/dim, distFunc), nil
}

func nearest(vec, centroids []float32, dim, k int, distFunc distance.Func) int {
	best := -1
	minDist := float32(math.MaxFloat32)
	for j := 0; j < k; j++ {
		d := distFunc(vec, centroids[j*dim:(j+1)*dim])
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}
