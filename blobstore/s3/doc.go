// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("matrices/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	r, err := phreduce.Open(ctx, phreduce.Concurrent, "complex.txt.zst",
//	    phreduce.WithBlobStore(store))
//
// Credentials and region come from the default AWS configuration chain
// (environment, shared config, instance roles).
//
// # Features
//
//   - Streaming reads of whole objects
//   - Multipart uploads for large pair lists
//   - CRC32C integrity checks on Put
//   - Automatic pagination for listing
package s3
