package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maauso/mediacomposer/internal/compose"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// ErrJobFinished is returned when cancelling a job that already reached a
// terminal state.
var ErrJobFinished = errors.New("job already finished")

// Composer runs compositions. *compose.Composer implements it.
type Composer interface {
	Validate(req timeline.Request) error
	Plan(ctx context.Context, req timeline.Request) (*compose.Program, error)
	Compose(ctx context.Context, req timeline.Request) (*compose.Result, error)
}

// Workspace hands out output locations for jobs that did not name one and
// removes them again when such a job does not complete.
type Workspace interface {
	OutputPath(jobID string) (string, error)
	Cleanup(ctx context.Context, paths []string) error
}

// Service accepts composition jobs and runs them in the background, at most
// maxConcurrent at a time.
type Service struct {
	repo      Repository
	composer  Composer
	workspace Workspace
	logger    *slog.Logger
	slots     chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxConcurrentJobs limits how many jobs encode at once. Values below 1
// are ignored.
func WithMaxConcurrentJobs(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.slots = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, composer Composer, workspace Workspace, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		composer:  composer,
		workspace: workspace,
		logger:    slog.Default(),
		slots:     make(chan struct{}, 2),
		cancels:   make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates req, stores a new job and starts it in the background.
// Validation failures are returned directly and no job is created.
func (s *Service) Submit(ctx context.Context, req timeline.Request) (*Job, error) {
	if err := s.composer.Validate(req); err != nil {
		return nil, err
	}

	job := New(req)
	allocated := job.OutputPath == ""
	if allocated {
		out, err := s.workspace.OutputPath(job.ID)
		if err != nil {
			return nil, fmt.Errorf("allocate output path: %w", err)
		}
		job.OutputPath = out
		job.Request.OutputPath = out
	}
	if job.Request.Publish && job.Request.PublishKey == "" {
		job.Request.PublishKey = job.ID
	}

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("composition job queued",
		slog.String("job_id", job.ID),
		slog.String("mode", string(req.Mode())),
		slog.String("output", job.OutputPath),
		slog.Bool("publish", req.Publish),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(runCtx, job, allocated)

	return job.Clone(), nil
}

// run waits for a free slot, composes and records the outcome. Partial
// output in workspace-allocated paths is removed unless the job completes.
func (s *Service) run(ctx context.Context, job *Job, allocated bool) {
	defer s.wg.Done()
	defer s.release(job.ID)
	if allocated {
		defer s.discardUnlessCompleted(job)
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		s.finish(job, job.Cancel, "cancelled while queued")
		return
	}

	if err := job.Start(); err != nil {
		// Cancelled between dequeue and start.
		return
	}
	s.save(job)

	res, err := s.composer.Compose(ctx, job.Request)
	switch {
	case err == nil:
		s.finish(job, func() error { return job.Complete(res) }, "completed")
	case ctx.Err() != nil:
		s.finish(job, job.Cancel, "cancelled")
	default:
		s.logger.Error("composition failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		s.finish(job, func() error { return job.Fail(err.Error()) }, "failed")
	}
}

func (s *Service) finish(job *Job, transition func() error, outcome string) {
	if err := transition(); err != nil {
		s.logger.Warn("job transition rejected",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.GetStatus())),
			slog.String("outcome", outcome),
		)
		return
	}
	s.save(job)
	s.logger.Info("composition job "+outcome, slog.String("job_id", job.ID))
}

func (s *Service) discardUnlessCompleted(job *Job) {
	if job.GetStatus() == StatusCompleted {
		return
	}
	if err := s.workspace.Cleanup(context.Background(), []string{job.OutputPath}); err != nil {
		s.logger.Warn("failed to remove partial output",
			slog.String("job_id", job.ID),
			slog.String("path", job.OutputPath),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) save(job *Job) {
	// Saving must survive request cancellation.
	if err := s.repo.Save(context.Background(), job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) release(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[jobID]; ok {
		cancel()
		delete(s.cancels, jobID)
	}
}

// Get retrieves a job by ID.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns every known job, oldest first.
func (s *Service) List(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// Cancel stops a queued or running job. The job reaches CANCELLED
// asynchronously once its worker observes the cancellation.
func (s *Service) Cancel(ctx context.Context, id string) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return ErrJobFinished
	}

	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		return ErrJobFinished
	}
	cancel()
	return nil
}

// Plan compiles req without creating a job or running the engine.
func (s *Service) Plan(ctx context.Context, req timeline.Request) (*compose.Program, error) {
	return s.composer.Plan(ctx, req)
}

// Wait blocks until every started job has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
