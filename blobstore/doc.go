// Package blobstore provides the storage abstraction phreduce reads boundary
// matrices from and writes pair lists to.
//
// Inputs are streamed once from start to end, so a Blob is a sized
// io.ReadCloser rather than a random-access handle. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem rooted at a directory
//   - MemoryStore: in-memory, for tests
//   - minio.Store: MinIO and S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads
//
// # Locations
//
// ParseLocation splits "s3://bucket/key", "minio://bucket/key" and plain
// paths into a Location the CLI uses to pick a store.
package blobstore
