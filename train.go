package bowgo

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/descriptor"
	"github.com/hupe1980/bowgo/distance"
	"github.com/hupe1980/bowgo/internal/kmeans"
)

// TrainOptions configures vocabulary training beyond the branching factor
// and depth.
type TrainOptions struct {
	// Weighting selects the leaf weighting scheme (default TF-IDF).
	Weighting bow.WeightingType
	// Scoring selects the scheme later used to compare BoW vectors
	// (default L1). It also fixes the norm Transform applies.
	Scoring bow.ScoringType
	// Metric is the descriptor-space distance (default squared L2).
	Metric distance.Metric
	// MaxIterations caps k-means iterations per node (default 64).
	MaxIterations int
	// Seed feeds centroid initialization. Identical training input and
	// seed yield identical trees; the retrieval contract only requires
	// functional equivalence, so persisted vocabularies are meant to be
	// reused rather than rebuilt per run.
	Seed int64
	// Parallelism bounds concurrent subtree builds
	// (default runtime.GOMAXPROCS(0)).
	Parallelism int

	// Logger and Metrics observe the training run.
	Logger  *Logger
	Metrics MetricsCollector
}

// Train builds a visual vocabulary from a training corpus, one descriptor
// batch per training image.
//
// The tree is built by recursive k-means: descriptors pooled at each node
// are split into at most branching clusters and each cluster recurses until
// levels is reached or a subset runs out of descriptors. Clusters that come
// up empty are skipped, reducing the effective branching at that node.
// After the tree is assembled, leaf weights are computed in a single pass
// over the training corpus.
func Train(ctx context.Context, training []*descriptor.Batch, branching, levels int, optFns ...func(*TrainOptions)) (*Vocabulary, error) {
	opts := TrainOptions{
		Weighting:     bow.WeightingTFIDF,
		Scoring:       bow.ScoringL1,
		Metric:        distance.MetricL2,
		MaxIterations: 64,
		Seed:          1,
		Parallelism:   runtime.GOMAXPROCS(0),
		Logger:        NoopLogger(),
		Metrics:       NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}

	start := time.Now()
	v, err := train(ctx, training, branching, levels, &opts)
	duration := time.Since(start)

	words := 0
	if v != nil {
		words = v.Words()
	}
	opts.Logger.LogTrain(ctx, branching, levels, words, duration, err)
	opts.Metrics.RecordTrain(duration, err)

	return v, err
}

func train(ctx context.Context, training []*descriptor.Batch, branching, levels int, opts *TrainOptions) (*Vocabulary, error) {
	if branching < 2 || levels < 1 {
		return nil, &ErrInvalidParameters{Branching: branching, Levels: levels}
	}
	if !opts.Weighting.Valid() || !opts.Scoring.Valid() {
		return nil, &ErrInvalidParameters{Branching: branching, Levels: levels}
	}
	distFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}
	scoreFunc, err := bow.Provider(opts.Scoring)
	if err != nil {
		return nil, err
	}

	pooled, err := descriptor.Concat(training...)
	if err != nil {
		var dm *descriptor.ErrDimensionMismatch
		if errors.As(err, &dm) {
			return nil, err
		}
		return nil, ErrEmptyTrainingSet
	}
	if pooled.Len() == 0 {
		return nil, ErrEmptyTrainingSet
	}

	t := &trainer{
		branching: branching,
		levels:    levels,
		dim:       pooled.Dim(),
		metric:    opts.Metric,
		maxIter:   opts.MaxIterations,
	}

	root, err := t.build(ctx, pooled.Data(), opts.Seed, opts.Parallelism)
	if err != nil {
		return nil, err
	}

	v := flatten(root, t.dim)
	v.branching = branching
	v.levels = levels
	v.weighting = opts.Weighting
	v.scoring = opts.Scoring
	v.metric = opts.Metric
	v.distFunc = distFunc
	v.scoreFunc = scoreFunc

	v.setWeights(training)

	return v, nil
}

// trainer carries the immutable parameters of one training run.
type trainer struct {
	branching int
	levels    int
	dim       int
	metric    distance.Metric
	maxIter   int
}

// buildNode is the intermediate pointer-linked tree assembled during
// training; it is flattened into the arena afterwards.
type buildNode struct {
	centroid []float32
	children []*buildNode
}

// build clusters the pooled training descriptors and recurses into the
// resulting subsets. The first split fans out onto worker goroutines; the
// subsets are disjoint, so subtrees share no mutable state and the caller
// assembles the final tree after every subtree returns.
func (t *trainer) build(ctx context.Context, vectors []float32, seed int64, parallelism int) (*buildNode, error) {
	root := &buildNode{centroid: make([]float32, t.dim)}

	n := len(vectors) / t.dim
	if n < 2 {
		return root, nil
	}

	res, err := kmeans.Train(ctx, vectors, t.dim, t.branching, t.metric, t.maxIter, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	groups := t.split(vectors, res)

	children := make([]*buildNode, res.K)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for j := 0; j < res.K; j++ {
		if len(groups[j]) == 0 {
			continue
		}
		j := j
		g.Go(func() error {
			child, err := t.subtree(gctx, groups[j], 1, rand.New(rand.NewSource(seed+int64(j+1)*0x9E3779B9)))
			if err != nil {
				return err
			}
			child.centroid = res.Centroids[j*t.dim : (j+1)*t.dim]
			children[j] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, child := range children {
		if child != nil {
			root.children = append(root.children, child)
		}
	}
	return root, nil
}

// subtree builds one node's subtree sequentially.
func (t *trainer) subtree(ctx context.Context, vectors []float32, level int, rng *rand.Rand) (*buildNode, error) {
	bn := &buildNode{}

	n := len(vectors) / t.dim
	if level >= t.levels || n < 2 {
		return bn, nil
	}

	res, err := kmeans.Train(ctx, vectors, t.dim, t.branching, t.metric, t.maxIter, rng)
	if err != nil {
		return nil, err
	}
	if res.K < 2 {
		return bn, nil
	}

	groups := t.split(vectors, res)
	for j := 0; j < res.K; j++ {
		if len(groups[j]) == 0 {
			continue
		}
		child, err := t.subtree(ctx, groups[j], level+1, rng)
		if err != nil {
			return nil, err
		}
		child.centroid = res.Centroids[j*t.dim : (j+1)*t.dim]
		bn.children = append(bn.children, child)
	}
	return bn, nil
}

// split partitions the flattened vectors by cluster assignment.
func (t *trainer) split(vectors []float32, res *kmeans.Result) [][]float32 {
	groups := make([][]float32, res.K)
	for i, c := range res.Assignments {
		groups[c] = append(groups[c], vectors[i*t.dim:(i+1)*t.dim]...)
	}
	return groups
}

// flatten lays the pointer-linked build tree out as a flat arena in
// breadth-first order, so each node's children occupy a contiguous id range
// and leaves get word ids in traversal order.
func flatten(root *buildNode, dim int) *Vocabulary {
	v := &Vocabulary{dim: dim}

	pending := []*buildNode{root}
	parents := []NodeID{0}

	for len(pending) > 0 {
		bn := pending[0]
		parent := parents[0]
		pending = pending[1:]
		parents = parents[1:]

		id := NodeID(len(v.nodes))
		v.nodes = append(v.nodes, node{parent: parent})
		v.centroids = append(v.centroids, bn.centroid...)

		// Reserve the contiguous child range up front; ids are handed
		// out in queue order, so the range is exact.
		if len(bn.children) > 0 {
			first := NodeID(len(v.nodes) + len(pending))
			v.nodes[id].childFirst = first
			v.nodes[id].childCount = uint32(len(bn.children))
			for _, child := range bn.children {
				pending = append(pending, child)
				parents = append(parents, id)
			}
		}
	}

	for id := range v.nodes {
		if v.nodes[id].isLeaf() {
			v.nodes[id].word = bow.WordID(len(v.words))
			v.words = append(v.words, NodeID(id))
		}
	}
	return v
}

// setWeights computes leaf weights in one pass over the training corpus.
//
// For IDF-style schemes each word tracks the set of training images that
// contain it in a roaring bitmap; the bitmap cardinality is the document
// frequency. weight = ln(N / Ni), which is naturally 0 for words present in
// every training image.
func (v *Vocabulary) setWeights(training []*descriptor.Batch) {
	if !v.weighting.UsesIDF() {
		for _, id := range v.words {
			v.nodes[id].weight = 1
		}
		return
	}

	docs := make([]*roaring.Bitmap, len(v.words))
	numImages := 0
	for imgIdx, batch := range training {
		if batch == nil || batch.Len() == 0 {
			continue
		}
		numImages++
		for i := 0; i < batch.Len(); i++ {
			leaf, _ := v.descend(batch.At(i), -1)
			w := v.nodes[leaf].word
			if docs[w] == nil {
				docs[w] = roaring.New()
			}
			docs[w].Add(uint32(imgIdx))
		}
	}

	for w, id := range v.words {
		if docs[w] == nil {
			continue // never seen in training, weight stays 0
		}
		ni := docs[w].GetCardinality()
		v.nodes[id].weight = float32(math.Log(float64(numImages) / float64(ni)))
	}
}
