package bowgo

import (
	"context"
	"math"
	"time"

	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/descriptor"
	"github.com/hupe1980/bowgo/queue"
)

// Query transforms an image's descriptors and returns the topN most similar
// stored entries, best first. Ties are broken in favor of the lower entry id.
//
// topN <= 0 and queries against an empty database both yield no results.
func (db *Database) Query(ctx context.Context, batch *descriptor.Batch, topN int) ([]Result, error) {
	start := time.Now()

	vec, err := db.voc.Transform(batch)
	if err != nil {
		db.logger.LogQuery(ctx, topN, 0, err)
		db.metrics.RecordQuery(topN, time.Since(start), err)
		return nil, err
	}

	results := db.query(vec, topN)

	db.logger.LogQuery(ctx, topN, len(results), nil)
	db.metrics.RecordQuery(topN, time.Since(start), nil)

	return results, nil
}

// QueryVector runs a query with a pre-transformed BoW vector. The vector
// must come from Transform on the database's own vocabulary.
func (db *Database) QueryVector(ctx context.Context, vec bow.Vector, topN int) ([]Result, error) {
	start := time.Now()

	results := db.query(vec, topN)

	db.logger.LogQuery(ctx, topN, len(results), nil)
	db.metrics.RecordQuery(topN, time.Since(start), nil)

	return results, nil
}

// query accumulates per-entry partial scores over the posting lists of the
// query's words, finalizes them under the scoring scheme, and keeps the topN
// best. Only entries sharing at least one word with the query are touched.
func (db *Database) query(vec bow.Vector, topN int) []Result {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if topN <= 0 || db.nextEntry == 0 || len(vec) == 0 {
		return []Result{}
	}

	acc := make(map[EntryID]float64)

	switch db.voc.scoring {
	case bow.ScoringL1:
		for _, e := range vec {
			qw := float64(e.Weight)
			for _, p := range db.postings[e.Word] {
				dw := float64(p.weight)
				acc[p.entry] += math.Abs(qw-dw) - math.Abs(qw) - math.Abs(dw)
			}
		}
	case bow.ScoringChiSquare:
		for _, e := range vec {
			qw := float64(e.Weight)
			for _, p := range db.postings[e.Word] {
				dw := float64(p.weight)
				if d := qw + dw; d > 0 {
					acc[p.entry] += 2 * qw * dw / d
				}
			}
		}
	default: // ScoringL2, ScoringDot: dot-product accumulation
		for _, e := range vec {
			qw := float64(e.Weight)
			for _, p := range db.postings[e.Word] {
				acc[p.entry] += qw * float64(p.weight)
			}
		}
	}

	sel := queue.NewTopN(topN)
	for entry, sum := range acc {
		sel.Push(queue.Item{Entry: uint32(entry), Score: db.finalize(sum)})
	}

	results := make([]Result, 0, sel.Len())
	for _, item := range sel.Results() {
		results = append(results, Result{Entry: EntryID(item.Entry), Score: item.Score})
	}
	return results
}

// finalize maps an accumulated partial sum to the scheme's final score.
func (db *Database) finalize(sum float64) float32 {
	switch db.voc.scoring {
	case bow.ScoringL1:
		// sum is in [-2, 0]; identical vectors reach -2.
		return float32(-sum / 2)
	case bow.ScoringL2:
		if sum >= 1 {
			return 1
		}
		return float32(1 - math.Sqrt(1-sum))
	default:
		return float32(sum)
	}
}
