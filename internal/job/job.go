// Package job provides the composition Job aggregate, its state machine, a
// repository port and the service that runs jobs in the background.
package job

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/mediacomposer/internal/compose"
	"github.com/maauso/mediacomposer/internal/job/id"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting for a free encoder slot.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the job is probing, compiling or encoding.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the composition was written successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates validation, probing or encoding failed.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the job was cancelled by a caller.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusCancelled, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// Job is one composition request tracked from submission to completion.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Request is the composition request as submitted.
	Request timeline.Request
	// OutputPath is where the composition is written.
	OutputPath string
	// URL is the published location when the request asked for publication.
	URL string
	// TotalDurationSec is the length of the composed program.
	TotalDurationSec float64
	// ScenesProcessed and TracksProcessed count what ended up in the graph.
	ScenesProcessed int
	TracksProcessed int
	// SubtitleBurned reports whether subtitles were burned in.
	SubtitleBurned bool
	// Error contains the failure message if the job failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job for req with a generated ID and IN_QUEUE status.
func New(req timeline.Request) *Job {
	return NewWithID(id.Generate(), req)
}

// NewWithID creates a new Job with the specified ID and IN_QUEUE status.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string, req timeline.Request) *Job {
	now := time.Now()
	return &Job{
		ID:         jobID,
		Status:     StatusInQueue,
		Request:    req,
		OutputPath: req.OutputPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete records the composition result and transitions to COMPLETED.
func (j *Job) Complete(res *compose.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	if res != nil {
		if res.OutputPath != "" {
			j.OutputPath = res.OutputPath
		}
		j.URL = res.URL
		j.TotalDurationSec = res.TotalDurationSec
		j.ScenesProcessed = res.ScenesProcessed
		j.TracksProcessed = res.TracksProcessed
		j.SubtitleBurned = res.SubtitleBurned
	}
	return nil
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	return nil
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(validTransitions[j.Status]) == 0
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	req := j.Request
	req.Scenes = slices.Clone(j.Request.Scenes)
	req.Audio = slices.Clone(j.Request.Audio)

	return &Job{
		ID:               j.ID,
		Status:           j.Status,
		Request:          req,
		OutputPath:       j.OutputPath,
		URL:              j.URL,
		TotalDurationSec: j.TotalDurationSec,
		ScenesProcessed:  j.ScenesProcessed,
		TracksProcessed:  j.TracksProcessed,
		SubtitleBurned:   j.SubtitleBurned,
		Error:            j.Error,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
	}
}
