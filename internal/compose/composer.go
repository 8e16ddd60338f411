package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// Static errors for the composition use case.
var (
	// ErrNoPublisher is returned when publication is requested but no
	// publisher is configured.
	ErrNoPublisher = errors.New("publication requested but no publisher configured")
)

// Publisher uploads a finished composition and returns where it can be fetched.
type Publisher interface {
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}

// Result is the outcome of a successful composition.
type Result struct {
	Success          bool          `json:"success"`
	OutputPath       string        `json:"output_path"`
	URL              string        `json:"url,omitempty"`
	TotalDurationSec float64       `json:"total_duration_sec"`
	ScenesProcessed  int           `json:"scenes_processed"`
	TracksProcessed  int           `json:"tracks_processed"`
	SubtitleBurned   bool          `json:"subtitle_burned"`
	Elapsed          time.Duration `json:"-"`
}

// Composer runs composition requests end to end.
type Composer struct {
	builder   *timeline.Builder
	prober    media.Prober
	encoder   media.Encoder
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	sink      media.LineSink
	// maxProbes bounds concurrent probe calls per request.
	maxProbes int
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) ComposerOption {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPublisher sets the publisher used for requests with Publish set.
func WithPublisher(p Publisher) ComposerOption {
	return func(c *Composer) {
		c.publisher = p
	}
}

// WithBuilder replaces the default timeline builder.
func WithBuilder(b *timeline.Builder) ComposerOption {
	return func(c *Composer) {
		c.builder = b
	}
}

// WithLineSink receives every engine diagnostic line. By default lines are
// logged at debug level.
func WithLineSink(sink media.LineSink) ComposerOption {
	return func(c *Composer) {
		c.sink = sink
	}
}

// WithMaxConcurrentProbes bounds parallel probe calls. Values below 1 are ignored.
func WithMaxConcurrentProbes(n int) ComposerOption {
	return func(c *Composer) {
		if n > 0 {
			c.maxProbes = n
		}
	}
}

// NewComposer creates a Composer.
func NewComposer(prober media.Prober, encoder media.Encoder, opts Options, options ...ComposerOption) *Composer {
	c := &Composer{
		builder:   timeline.NewBuilder(),
		prober:    prober,
		encoder:   encoder,
		opts:      opts,
		logger:    slog.Default(),
		maxProbes: 4,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.sink == nil {
		logger := c.logger
		c.sink = func(line string) {
			logger.Debug("ffmpeg", slog.String("line", line))
		}
	}
	return c
}

// Options returns the compiler options the composer was created with.
func (c *Composer) Options() Options {
	return c.opts
}

// Validate normalizes and checks req without probing any file. It also
// rejects publication when no publisher is configured.
func (c *Composer) Validate(req timeline.Request) error {
	if req.Publish && c.publisher == nil {
		return ErrNoPublisher
	}
	_, err := c.validate(req)
	return err
}

func (c *Composer) validate(req timeline.Request) (timeline.Request, error) {
	req, err := timeline.Normalize(req)
	if err != nil {
		return timeline.Request{}, err
	}
	if err := c.builder.Validate(req); err != nil {
		return timeline.Request{}, err
	}
	return req, nil
}

// Plan validates and probes req and compiles it without running the engine.
func (c *Composer) Plan(ctx context.Context, req timeline.Request) (*Program, error) {
	req, err := c.validate(req)
	if err != nil {
		return nil, err
	}

	probes, err := c.probeAll(ctx, req.ProbeTargets())
	if err != nil {
		return nil, err
	}

	tl, err := c.builder.Build(req, probes)
	if err != nil {
		return nil, err
	}

	prog, err := Compile(tl, c.opts)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	for _, s := range prog.Skipped {
		c.logger.Info("audio track skipped",
			slog.String("path", s.Path),
			slog.Float64("start_offset_sec", s.StartOffsetSec),
			slog.Float64("probed_duration_sec", s.ProbedDurationSec),
			slog.Float64("total_duration_sec", prog.TotalDurationSec),
		)
	}

	return prog, nil
}

// Compose runs req to completion and writes the result to req.OutputPath.
func (c *Composer) Compose(ctx context.Context, req timeline.Request) (*Result, error) {
	start := time.Now()

	if req.OutputPath == "" {
		return nil, &timeline.ValidationError{Field: "output_path", Err: timeline.ErrEmptyPath}
	}
	if req.Publish && c.publisher == nil {
		return nil, ErrNoPublisher
	}

	prog, err := c.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("encoding composition",
		slog.String("output", req.OutputPath),
		slog.Int("inputs", len(prog.Inputs)),
		slog.Int("scenes", prog.ScenesProcessed),
		slog.Int("tracks", prog.TracksProcessed),
		slog.String("mix", prog.MixStrategy),
		slog.Bool("reencode", prog.Reencode),
		slog.Float64("total_duration_sec", prog.TotalDurationSec),
	)

	if err := c.encoder.Encode(ctx, prog.EncodeRequest(c.opts.Encoding, req.OutputPath), c.sink); err != nil {
		return nil, err
	}

	res := &Result{
		Success:          true,
		OutputPath:       req.OutputPath,
		TotalDurationSec: prog.TotalDurationSec,
		ScenesProcessed:  prog.ScenesProcessed,
		TracksProcessed:  prog.TracksProcessed,
		SubtitleBurned:   prog.SubtitleBurned,
	}

	if req.Publish {
		url, err := c.publish(ctx, req.OutputPath, req.PublishKey)
		if err != nil {
			return nil, err
		}
		res.URL = url
	}

	res.Elapsed = time.Since(start)
	c.logger.Info("composition finished",
		slog.String("output", res.OutputPath),
		slog.String("url", res.URL),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// probeAll probes every path concurrently and waits for all of them. The
// first failure cancels the remaining probes.
func (c *Composer) probeAll(ctx context.Context, paths []string) (map[string]*media.ProbeResult, error) {
	results := make([]*media.ProbeResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxProbes)
	for i, path := range paths {
		g.Go(func() error {
			res, err := c.prober.Probe(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	probes := make(map[string]*media.ProbeResult, len(paths))
	for i, path := range paths {
		probes[path] = results[i]
	}
	return probes, nil
}

// publishKey returns the object key for an output. Without a caller-chosen
// name a random one is used so outputs sharing a file name never collide.
func publishKey(path, name string) string {
	if name == "" {
		name = uuid.NewString()
	}
	return "compositions/" + name + filepath.Ext(path)
}

func (c *Composer) publish(ctx context.Context, path, name string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is the output this composer just wrote
	if err != nil {
		return "", fmt.Errorf("open output: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := c.publisher.Publish(ctx, publishKey(path, name), f)
	if err != nil {
		return "", fmt.Errorf("publish output: %w", err)
	}
	return url, nil
}
