package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when no composition job has the requested ID.
var ErrJobNotFound = errors.New("job not found")

// Repository stores composition jobs between submission and retrieval.
// Implementations hand out copies so callers never share a Job's mutable
// state with the background worker composing it.
type Repository interface {
	// Save inserts the job or replaces the stored copy with the same ID.
	Save(ctx context.Context, job *Job) error

	// FindByID returns the stored job or ErrJobNotFound.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns every job ordered by submission time, oldest first.
	List(ctx context.Context) ([]*Job, error)

	// Delete forgets a job. It returns ErrJobNotFound for unknown IDs.
	Delete(ctx context.Context, id string) error
}
