// Package storage manages where compositions are written and where finished
// files are published. LocalStorage hands out output paths inside a working
// directory; S3Storage adds publication to an S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// Storage is the output workspace used by composition jobs.
type Storage interface {
	// OutputPath returns the file a job without an explicit destination
	// should write to. The directory exists when it returns.
	OutputPath(jobID string) (string, error)

	// Cleanup removes the given files, continuing past failures.
	Cleanup(ctx context.Context, paths []string) error

	// Publish uploads data under key and returns its public URL.
	// Returns ErrS3NotConfigured if publication is not available.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
