// Package blobstore abstracts durable storage for vocabulary and database
// snapshots.
//
// Backends:
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem with atomic replace
//   - minio.Store: MinIO / S3-compatible object storage
package blobstore
