package bowgo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/testutil"
)

func TestNewNoVocabulary(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoVocabulary)
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 10)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())

	for i, img := range images {
		entry, err := db.Add(ctx, img)
		require.NoError(t, err)
		assert.Equal(t, EntryID(i), entry)
	}
	assert.Equal(t, len(images), db.Len())
}

func TestQueryReturnsSelfFirst(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(11)
	images := testutil.ClusteredBatches(rng, 50, 200, 16, 64, 0.05)

	voc, err := Train(ctx, images, 9, 3)
	require.NoError(t, err)

	db, err := New(voc)
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(ctx, img)
		require.NoError(t, err)
	}

	results, err := db.Query(ctx, images[7], 4)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, EntryID(7), results[0].Entry)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)

	// Scores come back best first.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestQueryTopNBound(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 10)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(ctx, img)
		require.NoError(t, err)
	}

	results, err := db.Query(ctx, images[0], 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Asking for more than stored returns at most the matching entries.
	results, err = db.Query(ctx, images[0], 100)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 10)
}

func TestQueryEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 5)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)

	results, err := db.Query(ctx, images[0], 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryNonPositiveTopN(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 5)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	_, err = db.Add(ctx, images[0])
	require.NoError(t, err)

	for _, topN := range []int{0, -1} {
		results, err := db.Query(ctx, images[0], topN)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestQueryAllScoringSchemes(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 12)

	for _, scoring := range []bow.ScoringType{bow.ScoringL1, bow.ScoringL2, bow.ScoringDot, bow.ScoringChiSquare} {
		t.Run(scoring.String(), func(t *testing.T) {
			voc := trainTestVocabulary(t, images, func(o *TrainOptions) { o.Scoring = scoring })
			db, err := New(voc)
			require.NoError(t, err)
			for _, img := range images {
				_, err := db.Add(ctx, img)
				require.NoError(t, err)
			}

			results, err := db.Query(ctx, images[4], 3)
			require.NoError(t, err)
			require.NotEmpty(t, results)
			// Dot scores are unbounded, so self is not guaranteed on top.
			if scoring != bow.ScoringDot {
				assert.Equal(t, EntryID(4), results[0].Entry)
			}

			// Inverted-index scores agree with direct vector scoring.
			qv, err := voc.Transform(images[4])
			require.NoError(t, err)
			for _, r := range results {
				ev, err := voc.Transform(images[r.Entry])
				require.NoError(t, err)
				assert.InDelta(t, float64(voc.Score(qv, ev)), float64(r.Score), 1e-4)
			}
		})
	}
}

func TestQueryVector(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 8)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(ctx, img)
		require.NoError(t, err)
	}

	vec, err := voc.Transform(images[2])
	require.NoError(t, err)

	viaVector, err := db.QueryVector(ctx, vec, 4)
	require.NoError(t, err)
	viaBatch, err := db.Query(ctx, images[2], 4)
	require.NoError(t, err)
	assert.Equal(t, viaBatch, viaVector)

	// Empty query vector matches nothing.
	results, err := db.QueryVector(ctx, bow.Vector{}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddVector(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 5)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)

	vec, err := voc.Transform(images[0])
	require.NoError(t, err)
	entry, err := db.AddVector(ctx, vec)
	require.NoError(t, err)
	assert.Equal(t, EntryID(0), entry)

	results, err := db.QueryVector(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, entry, results[0].Entry)
}

func TestMonotonicPostings(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 10)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(ctx, img)
		require.NoError(t, err)
	}

	for _, list := range db.postings {
		for i := 1; i < len(list); i++ {
			assert.Less(t, list[i-1].entry, list[i].entry)
		}
	}
}

func TestEntriesWithWord(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 6)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(ctx, img)
		require.NoError(t, err)
	}

	vec, err := voc.Transform(images[0])
	require.NoError(t, err)
	require.NotEmpty(t, vec)

	bm := db.EntriesWithWord(vec[0].Word)
	assert.True(t, bm.Contains(0))
	assert.Equal(t, uint64(len(db.postings[vec[0].Word])), bm.GetCardinality())

	// Unknown words yield an empty set.
	assert.Equal(t, uint64(0), db.EntriesWithWord(bow.WordID(1<<30)).GetCardinality())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 6)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc, WithDirectIndex(1))
	require.NoError(t, err)
	for _, img := range images {
		_, err := db.Add(ctx, img)
		require.NoError(t, err)
	}
	require.Equal(t, 6, db.Len())

	db.Clear()
	assert.Equal(t, 0, db.Len())

	results, err := db.Query(ctx, images[0], 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Ids restart at zero after Clear.
	entry, err := db.Add(ctx, images[0])
	require.NoError(t, err)
	assert.Equal(t, EntryID(0), entry)
}

func TestDirectIndex(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 6)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc, WithDirectIndex(1))
	require.NoError(t, err)

	entry, err := db.Add(ctx, images[0])
	require.NoError(t, err)

	fv, ok := db.DirectIndex(entry)
	require.True(t, ok)
	require.NotEmpty(t, fv)

	total := 0
	for _, indices := range fv {
		total += len(indices)
	}
	assert.Equal(t, images[0].Len(), total)

	_, ok = db.DirectIndex(EntryID(99))
	assert.False(t, ok)
}

func TestDirectIndexDisabled(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 4)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	entry, err := db.Add(ctx, images[0])
	require.NoError(t, err)

	_, ok := db.DirectIndex(entry)
	assert.False(t, ok)
}

func TestSharedVocabulary(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 8)
	voc := trainTestVocabulary(t, images)

	a, err := New(voc)
	require.NoError(t, err)
	b, err := New(voc)
	require.NoError(t, err)
	assert.Same(t, a.Vocabulary(), b.Vocabulary())

	for _, img := range images[:4] {
		_, err := a.Add(ctx, img)
		require.NoError(t, err)
	}
	for _, img := range images[4:] {
		_, err := b.Add(ctx, img)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, a.Len())
	assert.Equal(t, 4, b.Len())
}

func TestConcurrentAddAndQuery(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 16)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	_, err = db.Add(ctx, images[0])
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i < len(images); i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := db.Add(ctx, images[i])
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := db.Query(ctx, images[i], 3)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(images), db.Len())
}

func TestDatabaseString(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 3)
	voc := trainTestVocabulary(t, images)

	db, err := New(voc)
	require.NoError(t, err)
	_, err = db.Add(ctx, images[0])
	require.NoError(t, err)

	s := db.String()
	assert.Contains(t, s, "Entries = 1")
	assert.Contains(t, s, "Vocabulary")
}
