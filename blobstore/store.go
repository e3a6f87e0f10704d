package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and writing blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when Close returns nil.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only stream over a blob.
type Blob interface {
	io.ReadCloser
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Abort discards the blob. Calling Abort after Close is a no-op.
	Abort() error
}

// Location addresses a blob by scheme, bucket and key.
type Location struct {
	// Scheme is "s3", "minio" or "" for the local filesystem.
	Scheme string
	// Bucket is the bucket name (empty for local paths).
	Bucket string
	// Key is the object key, or the file path for local locations.
	Key string
}

// IsLocal reports whether the location is a local path.
func (l Location) IsLocal() bool {
	return l.Scheme == ""
}

func (l Location) String() string {
	if l.IsLocal() {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// ParseLocation parses "s3://bucket/key", "minio://bucket/key" or a local
// path.
func ParseLocation(s string) (Location, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return Location{Key: s}, nil
	}

	switch scheme {
	case "s3", "minio":
	default:
		return Location{}, fmt.Errorf("unsupported scheme %q", scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("location %q needs a bucket and a key", s)
	}

	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}
