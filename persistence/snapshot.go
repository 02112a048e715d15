package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// maxSectionLen caps decoded section lengths so corrupt headers cannot
// trigger absurd allocations.
const maxSectionLen = 1 << 28

// VocabularySnapshot is the serializable form of a vocabulary tree.
//
// The tree is a flat node arena: children of a node occupy the contiguous id
// range [ChildFirst[i], ChildFirst[i]+ChildCount[i]); a ChildCount of zero
// marks a leaf. Word ids index WordNodes/WordWeights.
//
// The same struct doubles as the portable interchange form for the codec
// package, hence the field tags.
type VocabularySnapshot struct {
	Branching   uint32    `json:"branching" yaml:"branching"`
	Levels      uint32    `json:"levels" yaml:"levels"`
	Dim         uint32    `json:"dim" yaml:"dim"`
	Weighting   uint32    `json:"weighting" yaml:"weighting"`
	Scoring     uint32    `json:"scoring" yaml:"scoring"`
	Metric      uint32    `json:"metric" yaml:"metric"`
	Parents     []uint32  `json:"parents" yaml:"parents"`
	ChildFirst  []uint32  `json:"childFirst" yaml:"childFirst"`
	ChildCount  []uint32  `json:"childCount" yaml:"childCount"`
	Centroids   []float32 `json:"centroids" yaml:"centroids,flow"`
	WordNodes   []uint32  `json:"wordNodes" yaml:"wordNodes"`
	WordWeights []float32 `json:"wordWeights" yaml:"wordWeights,flow"`
}

// NumNodes returns the node count of the snapshot.
func (s *VocabularySnapshot) NumNodes() int { return len(s.ChildCount) }

// Validate checks the structural invariants of the snapshot.
// All failures wrap ErrInvalidStructure.
func (s *VocabularySnapshot) Validate() error {
	n := s.NumNodes()
	switch {
	case s.Dim == 0:
		return fmt.Errorf("%w: zero descriptor dimension", ErrInvalidStructure)
	case s.Branching < 2:
		return fmt.Errorf("%w: branching factor %d", ErrInvalidStructure, s.Branching)
	case s.Levels < 1:
		return fmt.Errorf("%w: levels %d", ErrInvalidStructure, s.Levels)
	case n == 0:
		return fmt.Errorf("%w: empty node arena", ErrInvalidStructure)
	case len(s.Parents) != n || len(s.ChildFirst) != n:
		return fmt.Errorf("%w: node section lengths disagree", ErrInvalidStructure)
	case len(s.Centroids) != n*int(s.Dim):
		return fmt.Errorf("%w: centroid section has %d values, want %d", ErrInvalidStructure, len(s.Centroids), n*int(s.Dim))
	case len(s.WordNodes) == 0:
		return fmt.Errorf("%w: no words", ErrInvalidStructure)
	case len(s.WordWeights) != len(s.WordNodes):
		return fmt.Errorf("%w: %d word weights for %d words", ErrInvalidStructure, len(s.WordWeights), len(s.WordNodes))
	}

	for i := 0; i < n; i++ {
		if s.Parents[i] >= uint32(n) {
			return fmt.Errorf("%w: node %d parent out of range", ErrInvalidStructure, i)
		}
		count := s.ChildCount[i]
		if count == 0 {
			continue
		}
		first := s.ChildFirst[i]
		if first <= uint32(i) || uint64(first)+uint64(count) > uint64(n) {
			return fmt.Errorf("%w: node %d child range [%d,%d) out of bounds", ErrInvalidStructure, i, first, first+count)
		}
	}

	for w, id := range s.WordNodes {
		if id >= uint32(n) {
			return fmt.Errorf("%w: word %d node id %d out of range", ErrInvalidStructure, w, id)
		}
		if s.ChildCount[id] != 0 {
			return fmt.Errorf("%w: word %d maps to non-leaf node %d", ErrInvalidStructure, w, id)
		}
	}
	return nil
}

// DirectEntrySnapshot holds the direct-index records of one database entry:
// for each tree node, the indices of the descriptors routed through it.
type DirectEntrySnapshot struct {
	Entry   uint32
	Nodes   []uint32
	Lengths []uint32 // per node, number of descriptor indices
	Indices []uint32 // concatenated descriptor indices
}

// DatabaseSnapshot is the serializable form of a retrieval database:
// the embedded vocabulary, the image counter and the full postings lists.
type DatabaseSnapshot struct {
	Vocabulary   VocabularySnapshot
	NextEntry    uint32
	DirectLevels int32 // -1 when the direct index is disabled

	// Postings, per word: lengths plus concatenated (entry, weight) columns.
	PostingLengths []uint32
	PostingEntries []uint32
	PostingWeights []float32

	Direct []DirectEntrySnapshot
}

// Validate checks the structural invariants of the snapshot, including the
// embedded vocabulary.
func (s *DatabaseSnapshot) Validate() error {
	if err := s.Vocabulary.Validate(); err != nil {
		return err
	}
	if len(s.PostingLengths) != len(s.Vocabulary.WordNodes) {
		return fmt.Errorf("%w: %d postings lists for %d words", ErrInvalidStructure, len(s.PostingLengths), len(s.Vocabulary.WordNodes))
	}
	var total uint64
	for _, n := range s.PostingLengths {
		total += uint64(n)
	}
	if uint64(len(s.PostingEntries)) != total || uint64(len(s.PostingWeights)) != total {
		return fmt.Errorf("%w: postings columns disagree with lengths", ErrInvalidStructure)
	}
	for _, e := range s.PostingEntries {
		if e >= s.NextEntry {
			return fmt.Errorf("%w: posting entry id %d beyond counter %d", ErrInvalidStructure, e, s.NextEntry)
		}
	}
	for _, d := range s.Direct {
		if d.Entry >= s.NextEntry {
			return fmt.Errorf("%w: direct index entry id %d beyond counter %d", ErrInvalidStructure, d.Entry, s.NextEntry)
		}
		if len(d.Nodes) != len(d.Lengths) {
			return fmt.Errorf("%w: direct index sections disagree for entry %d", ErrInvalidStructure, d.Entry)
		}
		var ti uint64
		for _, n := range d.Lengths {
			ti += uint64(n)
		}
		if uint64(len(d.Indices)) != ti {
			return fmt.Errorf("%w: direct index indices disagree for entry %d", ErrInvalidStructure, d.Entry)
		}
	}
	return nil
}

// EncodeVocabulary writes a vocabulary snapshot to w.
func EncodeVocabulary(w io.Writer, snap *VocabularySnapshot, compression CompressionType) error {
	var body bytes.Buffer
	if err := writeVocabularyBody(NewBinaryWriter(&body), snap); err != nil {
		return err
	}
	return writeSnapshot(w, SnapshotVocabulary, compression, body.Bytes())
}

// DecodeVocabulary reads a vocabulary snapshot from r.
// The returned snapshot is decoded but not yet validated; call Validate.
func DecodeVocabulary(r io.Reader) (*VocabularySnapshot, error) {
	body, err := readSnapshot(r, SnapshotVocabulary)
	if err != nil {
		return nil, err
	}
	br := NewBinaryReader(bytes.NewReader(body))
	var snap VocabularySnapshot
	if err := readVocabularyBody(br, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// EncodeDatabase writes a database snapshot to w.
func EncodeDatabase(w io.Writer, snap *DatabaseSnapshot, compression CompressionType) error {
	var body bytes.Buffer
	bw := NewBinaryWriter(&body)
	if err := writeVocabularyBody(bw, &snap.Vocabulary); err != nil {
		return err
	}
	if err := writeDatabaseBody(bw, snap); err != nil {
		return err
	}
	return writeSnapshot(w, SnapshotDatabase, compression, body.Bytes())
}

// DecodeDatabase reads a database snapshot from r.
// The returned snapshot is decoded but not yet validated; call Validate.
func DecodeDatabase(r io.Reader) (*DatabaseSnapshot, error) {
	body, err := readSnapshot(r, SnapshotDatabase)
	if err != nil {
		return nil, err
	}
	br := NewBinaryReader(bytes.NewReader(body))
	var snap DatabaseSnapshot
	if err := readVocabularyBody(br, &snap.Vocabulary); err != nil {
		return nil, err
	}
	if err := readDatabaseBody(br, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func writeSnapshot(w io.Writer, snapshotType uint8, compression CompressionType, body []byte) error {
	compressed, raw, err := compressBody(body, compression)
	if err != nil {
		return err
	}

	header := FileHeader{
		Magic:            MagicNumber,
		Version:          Version,
		SnapshotType:     snapshotType,
		UncompressedSize: uint32(len(body)),
	}
	stored := body
	if !raw {
		header.Compression = uint8(compression)
		header.CompressedSize = uint32(len(compressed))
		stored = compressed
	}
	header.Checksum = crc32.ChecksumIEEE(stored)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}

func readSnapshot(r io.Reader, wantType uint8) ([]byte, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	if header.SnapshotType != wantType {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSnapshotType, header.SnapshotType, wantType)
	}
	if header.UncompressedSize > maxSectionLen || header.CompressedSize > maxSectionLen {
		return nil, fmt.Errorf("%w: implausible body size", ErrInvalidStructure)
	}

	storedSize := header.CompressedSize
	if storedSize == 0 {
		storedSize = header.UncompressedSize
	}
	stored := make([]byte, storedSize)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	if sum := crc32.ChecksumIEEE(stored); sum != header.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch: expected 0x%08x, got 0x%08x", ErrTruncated, header.Checksum, sum)
	}

	if header.CompressedSize == 0 {
		return stored, nil
	}
	body, err := decompressBody(stored, CompressionType(header.Compression), int(header.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return body, nil
}

func writeVocabularyBody(bw *BinaryWriter, snap *VocabularySnapshot) error {
	for _, v := range []uint32{snap.Branching, snap.Levels, snap.Dim, snap.Weighting, snap.Scoring, snap.Metric, uint32(snap.NumNodes())} {
		if err := bw.WriteUint32(v); err != nil {
			return err
		}
	}
	if err := bw.WriteUint32Slice(snap.Parents); err != nil {
		return err
	}
	if err := bw.WriteUint32Slice(snap.ChildFirst); err != nil {
		return err
	}
	if err := bw.WriteUint32Slice(snap.ChildCount); err != nil {
		return err
	}
	if err := bw.WriteFloat32Slice(snap.Centroids); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(len(snap.WordNodes))); err != nil {
		return err
	}
	if err := bw.WriteUint32Slice(snap.WordNodes); err != nil {
		return err
	}
	return bw.WriteFloat32Slice(snap.WordWeights)
}

func readVocabularyBody(br *BinaryReader, snap *VocabularySnapshot) error {
	scalars := make([]uint32, 7)
	for i := range scalars {
		v, err := br.ReadUint32()
		if err != nil {
			return err
		}
		scalars[i] = v
	}
	snap.Branching, snap.Levels, snap.Dim = scalars[0], scalars[1], scalars[2]
	snap.Weighting, snap.Scoring, snap.Metric = scalars[3], scalars[4], scalars[5]
	numNodes := scalars[6]
	if numNodes > maxSectionLen || snap.Dim > maxSectionLen {
		return fmt.Errorf("%w: implausible node count", ErrInvalidStructure)
	}

	var err error
	if snap.Parents, err = br.ReadUint32Slice(int(numNodes)); err != nil {
		return err
	}
	if snap.ChildFirst, err = br.ReadUint32Slice(int(numNodes)); err != nil {
		return err
	}
	if snap.ChildCount, err = br.ReadUint32Slice(int(numNodes)); err != nil {
		return err
	}
	if uint64(numNodes)*uint64(snap.Dim) > maxSectionLen {
		return fmt.Errorf("%w: implausible centroid section", ErrInvalidStructure)
	}
	if snap.Centroids, err = br.ReadFloat32Slice(int(numNodes) * int(snap.Dim)); err != nil {
		return err
	}

	numWords, err := br.ReadUint32()
	if err != nil {
		return err
	}
	if numWords > numNodes {
		return fmt.Errorf("%w: %d words for %d nodes", ErrInvalidStructure, numWords, numNodes)
	}
	if snap.WordNodes, err = br.ReadUint32Slice(int(numWords)); err != nil {
		return err
	}
	snap.WordWeights, err = br.ReadFloat32Slice(int(numWords))
	return err
}

func writeDatabaseBody(bw *BinaryWriter, snap *DatabaseSnapshot) error {
	if err := bw.WriteUint32(snap.NextEntry); err != nil {
		return err
	}
	if err := bw.WriteInt32(snap.DirectLevels); err != nil {
		return err
	}
	if err := bw.WriteUint32Slice(snap.PostingLengths); err != nil {
		return err
	}
	if err := bw.WriteUint32(uint32(len(snap.PostingEntries))); err != nil {
		return err
	}
	if err := bw.WriteUint32Slice(snap.PostingEntries); err != nil {
		return err
	}
	if err := bw.WriteFloat32Slice(snap.PostingWeights); err != nil {
		return err
	}

	if err := bw.WriteUint32(uint32(len(snap.Direct))); err != nil {
		return err
	}
	for _, d := range snap.Direct {
		if err := bw.WriteUint32(d.Entry); err != nil {
			return err
		}
		if err := bw.WriteUint32(uint32(len(d.Nodes))); err != nil {
			return err
		}
		if err := bw.WriteUint32Slice(d.Nodes); err != nil {
			return err
		}
		if err := bw.WriteUint32Slice(d.Lengths); err != nil {
			return err
		}
		if err := bw.WriteUint32(uint32(len(d.Indices))); err != nil {
			return err
		}
		if err := bw.WriteUint32Slice(d.Indices); err != nil {
			return err
		}
	}
	return nil
}

func readDatabaseBody(br *BinaryReader, snap *DatabaseSnapshot) error {
	var err error
	if snap.NextEntry, err = br.ReadUint32(); err != nil {
		return err
	}
	if snap.DirectLevels, err = br.ReadInt32(); err != nil {
		return err
	}
	if snap.PostingLengths, err = br.ReadUint32Slice(len(snap.Vocabulary.WordNodes)); err != nil {
		return err
	}

	total, err := br.ReadUint32()
	if err != nil {
		return err
	}
	if total > maxSectionLen {
		return fmt.Errorf("%w: implausible postings count", ErrInvalidStructure)
	}
	if snap.PostingEntries, err = br.ReadUint32Slice(int(total)); err != nil {
		return err
	}
	if snap.PostingWeights, err = br.ReadFloat32Slice(int(total)); err != nil {
		return err
	}

	directCount, err := br.ReadUint32()
	if err != nil {
		return err
	}
	if directCount > maxSectionLen {
		return fmt.Errorf("%w: implausible direct index count", ErrInvalidStructure)
	}
	snap.Direct = make([]DirectEntrySnapshot, 0, directCount)
	for i := uint32(0); i < directCount; i++ {
		var d DirectEntrySnapshot
		if d.Entry, err = br.ReadUint32(); err != nil {
			return err
		}
		numNodes, err := br.ReadUint32()
		if err != nil {
			return err
		}
		if numNodes > maxSectionLen {
			return fmt.Errorf("%w: implausible direct node count", ErrInvalidStructure)
		}
		if d.Nodes, err = br.ReadUint32Slice(int(numNodes)); err != nil {
			return err
		}
		if d.Lengths, err = br.ReadUint32Slice(int(numNodes)); err != nil {
			return err
		}
		numIdx, err := br.ReadUint32()
		if err != nil {
			return err
		}
		if numIdx > maxSectionLen {
			return fmt.Errorf("%w: implausible direct index size", ErrInvalidStructure)
		}
		if d.Indices, err = br.ReadUint32Slice(int(numIdx)); err != nil {
			return err
		}
		snap.Direct = append(snap.Direct, d)
	}
	return nil
}
