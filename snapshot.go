package bowgo

import (
	"bytes"
	"context"
	"io"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/bowgo/blobstore"
	"github.com/hupe1980/bowgo/bow"
	"github.com/hupe1980/bowgo/distance"
	"github.com/hupe1980/bowgo/persistence"
)

// DefaultCompression is the compression applied by the plain Save methods.
const DefaultCompression = persistence.CompressionZSTD

// snapshot converts the vocabulary into its serializable column form.
func (v *Vocabulary) snapshot() *persistence.VocabularySnapshot {
	n := len(v.nodes)
	snap := &persistence.VocabularySnapshot{
		Branching:   uint32(v.branching),
		Levels:      uint32(v.levels),
		Dim:         uint32(v.dim),
		Weighting:   uint32(v.weighting),
		Scoring:     uint32(v.scoring),
		Metric:      uint32(v.metric),
		Parents:     make([]uint32, n),
		ChildFirst:  make([]uint32, n),
		ChildCount:  make([]uint32, n),
		Centroids:   v.centroids,
		WordNodes:   make([]uint32, len(v.words)),
		WordWeights: make([]float32, len(v.words)),
	}
	for i, nd := range v.nodes {
		snap.Parents[i] = uint32(nd.parent)
		snap.ChildFirst[i] = uint32(nd.childFirst)
		snap.ChildCount[i] = nd.childCount
	}
	for w, id := range v.words {
		snap.WordNodes[w] = uint32(id)
		snap.WordWeights[w] = v.nodes[id].weight
	}
	return snap
}

// vocabularyFromSnapshot rebuilds a Vocabulary from its column form,
// rejecting structurally invalid trees and unknown strategy enums.
func vocabularyFromSnapshot(snap *persistence.VocabularySnapshot) (*Vocabulary, error) {
	if err := snap.Validate(); err != nil {
		return nil, translateSnapshotError(err)
	}

	scoring := bow.ScoringType(snap.Scoring)
	if !scoring.Valid() {
		return nil, ErrScoringMismatch
	}
	weighting := bow.WeightingType(snap.Weighting)
	if !weighting.Valid() {
		return nil, ErrInvalidVocabulary
	}

	distFunc, err := distance.Provider(distance.Metric(snap.Metric))
	if err != nil {
		return nil, ErrInvalidVocabulary
	}
	scoreFunc, err := bow.Provider(scoring)
	if err != nil {
		return nil, ErrScoringMismatch
	}

	v := &Vocabulary{
		branching: int(snap.Branching),
		levels:    int(snap.Levels),
		dim:       int(snap.Dim),
		weighting: weighting,
		scoring:   scoring,
		metric:    distance.Metric(snap.Metric),
		nodes:     make([]node, snap.NumNodes()),
		centroids: snap.Centroids,
		words:     make([]NodeID, len(snap.WordNodes)),
		distFunc:  distFunc,
		scoreFunc: scoreFunc,
	}
	for i := range v.nodes {
		v.nodes[i] = node{
			parent:     NodeID(snap.Parents[i]),
			childFirst: NodeID(snap.ChildFirst[i]),
			childCount: snap.ChildCount[i],
		}
	}
	for w, id := range snap.WordNodes {
		v.words[w] = NodeID(id)
		v.nodes[id].word = bow.WordID(w)
		v.nodes[id].weight = snap.WordWeights[w]
	}
	return v, nil
}

// Save writes the vocabulary as a compressed binary snapshot.
func (v *Vocabulary) Save(w io.Writer) error {
	return v.SaveWithCompression(w, DefaultCompression)
}

// SaveWithCompression writes the vocabulary with an explicit compression
// choice.
func (v *Vocabulary) SaveWithCompression(w io.Writer, compression persistence.CompressionType) error {
	return persistence.EncodeVocabulary(w, v.snapshot(), compression)
}

// SaveFile writes the vocabulary to a file, atomically.
func (v *Vocabulary) SaveFile(filename string) error {
	return persistence.SaveToFile(filename, v.Save)
}

// SaveToStore writes the vocabulary to a blob store under name.
func (v *Vocabulary) SaveToStore(ctx context.Context, store blobstore.Store, name string) error {
	var buf bytes.Buffer
	if err := v.Save(&buf); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// LoadVocabulary reads a vocabulary snapshot written by Save.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	snap, err := persistence.DecodeVocabulary(r)
	if err != nil {
		return nil, translateSnapshotError(err)
	}
	return vocabularyFromSnapshot(snap)
}

// LoadVocabularyFile reads a vocabulary snapshot from a file.
func LoadVocabularyFile(filename string) (*Vocabulary, error) {
	var v *Vocabulary
	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		var err error
		v, err = LoadVocabulary(r)
		return err
	})
	return v, err
}

// LoadVocabularyFromStore reads a vocabulary snapshot from a blob store.
func LoadVocabularyFromStore(ctx context.Context, store blobstore.Store, name string) (*Vocabulary, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return LoadVocabulary(bytes.NewReader(data))
}

// snapshot converts the database (and its vocabulary) into column form.
// Caller holds at least the read lock.
func (db *Database) snapshot() *persistence.DatabaseSnapshot {
	snap := &persistence.DatabaseSnapshot{
		Vocabulary:     *db.voc.snapshot(),
		NextEntry:      uint32(db.nextEntry),
		DirectLevels:   int32(db.directLevels),
		PostingLengths: make([]uint32, len(db.postings)),
	}

	for w, list := range db.postings {
		snap.PostingLengths[w] = uint32(len(list))
		for _, p := range list {
			snap.PostingEntries = append(snap.PostingEntries, uint32(p.entry))
			snap.PostingWeights = append(snap.PostingWeights, p.weight)
		}
	}

	if db.direct != nil {
		entries := make([]EntryID, 0, len(db.direct))
		for e := range db.direct {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })

		for _, e := range entries {
			fv := db.direct[e]
			d := persistence.DirectEntrySnapshot{Entry: uint32(e)}

			nodes := make([]NodeID, 0, len(fv))
			for id := range fv {
				nodes = append(nodes, id)
			}
			sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

			for _, id := range nodes {
				d.Nodes = append(d.Nodes, uint32(id))
				d.Lengths = append(d.Lengths, uint32(len(fv[id])))
				d.Indices = append(d.Indices, fv[id]...)
			}
			snap.Direct = append(snap.Direct, d)
		}
	}
	return snap
}

// databaseFromSnapshot rebuilds a database, including the inverted index and
// direct index, over a freshly reconstructed vocabulary.
func databaseFromSnapshot(snap *persistence.DatabaseSnapshot, opts *options) (*Database, error) {
	if err := snap.Validate(); err != nil {
		return nil, translateSnapshotError(err)
	}

	voc, err := vocabularyFromSnapshot(&snap.Vocabulary)
	if err != nil {
		return nil, err
	}

	db := &Database{
		voc:          voc,
		postings:     make([][]posting, voc.Words()),
		wordEntries:  make([]*roaring.Bitmap, voc.Words()),
		nextEntry:    EntryID(snap.NextEntry),
		directLevels: int(snap.DirectLevels),
		logger:       opts.logger,
		metrics:      opts.metrics,
	}

	off := 0
	for w, n := range snap.PostingLengths {
		if n == 0 {
			continue
		}
		list := make([]posting, n)
		bm := roaring.New()
		for i := range list {
			list[i] = posting{
				entry:  EntryID(snap.PostingEntries[off+i]),
				weight: snap.PostingWeights[off+i],
			}
			bm.Add(snap.PostingEntries[off+i])
		}
		db.postings[w] = list
		db.wordEntries[w] = bm
		off += int(n)
	}

	if db.directLevels >= 0 {
		db.direct = make(map[EntryID]FeatureVector, len(snap.Direct))
		for _, d := range snap.Direct {
			fv := make(FeatureVector, len(d.Nodes))
			off := 0
			for i, id := range d.Nodes {
				n := int(d.Lengths[i])
				fv[NodeID(id)] = append([]uint32(nil), d.Indices[off:off+n]...)
				off += n
			}
			db.direct[EntryID(d.Entry)] = fv
		}
	}
	return db, nil
}

// Save writes the database (vocabulary included) as a compressed binary
// snapshot.
func (db *Database) Save(w io.Writer) error {
	return db.SaveWithCompression(w, DefaultCompression)
}

// SaveWithCompression writes the database with an explicit compression
// choice.
func (db *Database) SaveWithCompression(w io.Writer, compression persistence.CompressionType) error {
	start := time.Now()

	db.mu.RLock()
	snap := db.snapshot()
	db.mu.RUnlock()

	err := persistence.EncodeDatabase(w, snap, compression)

	db.logger.LogSnapshot(context.Background(), "database save", err)
	db.metrics.RecordSnapshot(time.Since(start), err)

	return err
}

// SaveFile writes the database to a file, atomically.
func (db *Database) SaveFile(filename string) error {
	return persistence.SaveToFile(filename, db.Save)
}

// SaveToStore writes the database to a blob store under name.
func (db *Database) SaveToStore(ctx context.Context, store blobstore.Store, name string) error {
	var buf bytes.Buffer
	if err := db.Save(&buf); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// LoadDatabase reads a database snapshot written by Save. The embedded
// vocabulary is reconstructed along with the index; options configure the
// returned database's logging and metrics.
func LoadDatabase(r io.Reader, optFns ...Option) (*Database, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()

	snap, err := persistence.DecodeDatabase(r)
	if err != nil {
		err = translateSnapshotError(err)
		opts.logger.LogSnapshot(context.Background(), "database load", err)
		opts.metrics.RecordSnapshot(time.Since(start), err)
		return nil, err
	}

	db, err := databaseFromSnapshot(snap, &opts)

	opts.logger.LogSnapshot(context.Background(), "database load", err)
	opts.metrics.RecordSnapshot(time.Since(start), err)

	return db, err
}

// LoadDatabaseFile reads a database snapshot from a file.
func LoadDatabaseFile(filename string, optFns ...Option) (*Database, error) {
	var db *Database
	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		var err error
		db, err = LoadDatabase(r, optFns...)
		return err
	})
	return db, err
}

// LoadDatabaseFromStore reads a database snapshot from a blob store.
func LoadDatabaseFromStore(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Database, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return LoadDatabase(bytes.NewReader(data), optFns...)
}
