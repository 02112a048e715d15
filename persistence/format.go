// Package persistence provides binary serialization for vocabularies and
// retrieval databases.
//
// A snapshot is a fixed header followed by a checksummed, optionally
// compressed body. The body is a sequence of little-endian sections holding
// the tree topology, leaf weights and, for databases, the inverted-index
// postings. Snapshots are whole-file: loading either yields a fully decoded
// snapshot or an error, never a partially initialized one.
package persistence

import "errors"

const (
	// MagicNumber identifies bowgo snapshot files (ASCII: "BOW0").
	MagicNumber = 0x424F5730
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	// Snapshot types
	SnapshotVocabulary = 1
	SnapshotDatabase   = 2
)

var (
	ErrInvalidMagic        = errors.New("invalid magic number")
	ErrInvalidVersion      = errors.New("unsupported version")
	ErrInvalidSnapshotType = errors.New("invalid snapshot type")
	ErrTruncated           = errors.New("truncated snapshot")
	// ErrInvalidStructure is returned when a snapshot decodes but its
	// contents are structurally inconsistent (word ids out of range,
	// mismatched section lengths, ...).
	ErrInvalidStructure = errors.New("invalid snapshot structure")
)

// FileHeader is the 24-byte header at the start of every snapshot file.
type FileHeader struct {
	Magic            uint32 // 0x424F5730 ("BOW0")
	Version          uint32 // File format version
	SnapshotType     uint8  // 1=Vocabulary, 2=Database
	Compression      uint8  // CompressionType of the body
	Padding          [2]byte
	UncompressedSize uint32 // Size of the body before compression
	CompressedSize   uint32 // Size of the stored body; 0 means uncompressed
	Checksum         uint32 // CRC32 (IEEE) of the stored body bytes
}
