package s3

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/phreduce/internal/hash"
)

var errUploadFinished = errors.New("s3: upload already closed or aborted")

// UploadConfig tunes multipart uploads of result blobs.
type UploadConfig struct {
	// PartSize is the size of each uploaded part in bytes (min 5 MiB).
	PartSize int64
	// Concurrency is the number of parts uploaded in parallel.
	Concurrency int
	// EnableChecksum sends CRC32C checksums with every upload.
	EnableChecksum bool
	// LeavePartsOnError keeps the parts of a failed multipart upload
	// instead of aborting it.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns 8 MiB parts, 5 parallel uploads and CRC32C
// checksums.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

func computeCRC32C(data []byte) string {
	return hash.CRC32CBase64(data)
}

// uploadBlob feeds an io.Pipe into a background manager.Uploader. Writes
// block until the uploader consumes them.
type uploadBlob struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	result chan error

	mu   sync.Mutex
	done bool
}

func startUpload(ctx context.Context, uploader *manager.Uploader, input *s3.PutObjectInput) *uploadBlob {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)
	input.Body = pr

	b := &uploadBlob{pw: pw, cancel: cancel, result: make(chan error, 1)}
	go func() {
		_, err := uploader.Upload(ctx, input)
		// Unblock writers if the upload failed early.
		_ = pr.CloseWithError(err)
		b.result <- err
	}()
	return b
}

func newUploadBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string, checksum bool) *uploadBlob {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	return startUpload(ctx, uploader, input)
}

func (b *uploadBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done {
		return 0, errUploadFinished
	}
	return b.pw.Write(p)
}

func (b *uploadBlob) finish() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return false
	}
	b.done = true
	return true
}

// Close completes the upload and returns its result.
func (b *uploadBlob) Close() error {
	if !b.finish() {
		return errUploadFinished
	}
	defer b.cancel()

	_ = b.pw.Close()
	return <-b.result
}

// Abort cancels the upload. The uploader aborts the multipart upload unless
// LeavePartsOnError is set.
func (b *uploadBlob) Abort() error {
	if !b.finish() {
		return nil
	}
	_ = b.pw.CloseWithError(context.Canceled)
	b.cancel()
	<-b.result
	return nil
}
