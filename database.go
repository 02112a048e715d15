package bowgo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/descriptor"
)

// EntryID identifies an image stored in a database. Ids are assigned
// sequentially starting at 0 and are never reused until Clear.
type EntryID uint32

// Result is one query match.
type Result struct {
	Entry EntryID
	Score float32
}

func (r Result) String() string {
	return fmt.Sprintf("<Entry: %d, Score: %g>", r.Entry, r.Score)
}

// posting is one inverted-index cell: an entry containing the word, with the
// weight the word carries in that entry's BoW vector.
type posting struct {
	entry  EntryID
	weight float32
}

// Database is an image database indexed by visual words. Every added image
// is transformed into a BoW vector and scattered into an inverted index, so
// queries only touch entries that share at least one word with the query.
//
// A Database is safe for concurrent use. The vocabulary is shared, not
// copied; several databases may index against the same vocabulary.
type Database struct {
	mu  sync.RWMutex
	voc *Vocabulary

	postings    [][]posting       // word id -> entries containing it, ascending
	wordEntries []*roaring.Bitmap // word id -> entry id set, nil until first use

	nextEntry EntryID

	directLevels int
	direct       map[EntryID]FeatureVector

	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty database over a trained vocabulary.
func New(voc *Vocabulary, optFns ...Option) (*Database, error) {
	if voc.Empty() {
		return nil, ErrNoVocabulary
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	db := &Database{
		voc:          voc,
		postings:     make([][]posting, voc.Words()),
		wordEntries:  make([]*roaring.Bitmap, voc.Words()),
		directLevels: opts.directLevels,
		logger:       opts.logger,
		metrics:      opts.metrics,
	}
	if db.directLevels >= 0 {
		db.direct = make(map[EntryID]FeatureVector)
	}
	return db, nil
}

// Vocabulary returns the shared vocabulary the database indexes against.
func (db *Database) Vocabulary() *Vocabulary { return db.voc }

// Len returns the number of stored entries.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int(db.nextEntry)
}

// Add transforms an image's descriptors and stores the result, returning the
// assigned entry id.
func (db *Database) Add(ctx context.Context, batch *descriptor.Batch) (EntryID, error) {
	start := time.Now()
	entry, words, err := db.add(batch)

	db.logger.LogAdd(ctx, uint32(entry), words, err)
	db.metrics.RecordAdd(time.Since(start), err)

	return entry, err
}

func (db *Database) add(batch *descriptor.Batch) (EntryID, int, error) {
	var (
		vec    bow.Vector
		direct FeatureVector
		err    error
	)
	if db.directLevels >= 0 {
		vec, direct, err = db.voc.TransformWithDirect(batch, db.directLevels)
	} else {
		vec, err = db.voc.Transform(batch)
	}
	if err != nil {
		return 0, 0, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	entry := db.insert(vec)
	if db.direct != nil {
		db.direct[entry] = direct
	}
	return entry, len(vec), nil
}

// AddVector stores a pre-transformed BoW vector. The vector must come from
// Transform on the database's own vocabulary. No direct index is recorded.
func (db *Database) AddVector(ctx context.Context, vec bow.Vector) (EntryID, error) {
	start := time.Now()

	db.mu.Lock()
	entry := db.insert(vec)
	db.mu.Unlock()

	db.logger.LogAdd(ctx, uint32(entry), len(vec), nil)
	db.metrics.RecordAdd(time.Since(start), nil)

	return entry, nil
}

// insert scatters vec into the inverted index. Entry ids grow monotonically,
// so appending keeps every posting list sorted. Caller holds the write lock.
func (db *Database) insert(vec bow.Vector) EntryID {
	entry := db.nextEntry
	db.nextEntry++

	for _, e := range vec {
		db.postings[e.Word] = append(db.postings[e.Word], posting{entry: entry, weight: e.Weight})
		if db.wordEntries[e.Word] == nil {
			db.wordEntries[e.Word] = roaring.New()
		}
		db.wordEntries[e.Word].Add(uint32(entry))
	}
	return entry
}

// DirectIndex returns the stored direct index of an entry, or false if the
// entry does not exist or the database was created without WithDirectIndex.
func (db *Database) DirectIndex(entry EntryID) (FeatureVector, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.direct == nil {
		return nil, false
	}
	fv, ok := db.direct[entry]
	return fv, ok
}

// EntriesWithWord returns the set of entries whose BoW vector contains w.
// The returned bitmap is a copy and safe to mutate.
func (db *Database) EntriesWithWord(w bow.WordID) *roaring.Bitmap {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if int(w) >= len(db.wordEntries) || db.wordEntries[w] == nil {
		return roaring.New()
	}
	return db.wordEntries[w].Clone()
}

// Clear removes all entries. The vocabulary is kept.
func (db *Database) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.postings = make([][]posting, db.voc.Words())
	db.wordEntries = make([]*roaring.Bitmap, db.voc.Words())
	db.nextEntry = 0
	if db.direct != nil {
		db.direct = make(map[EntryID]FeatureVector)
	}
}

func (db *Database) String() string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return fmt.Sprintf("Database: Entries = %d, %s", db.nextEntry, db.voc)
}
