package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is an abstraction for durable storage of snapshot blobs.
//
// Snapshots are written and read whole (they are checksummed, compressed
// streams), so the interface is deliberately coarse: no random access, no
// streaming handles.
type Store interface {
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads an entire blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
