package timeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/maauso/mediacomposer/internal/media"
)

// ExistsFunc reports whether a referenced file is usable. It returns nil when
// the file exists.
type ExistsFunc func(path string) error

// Builder validates requests and assembles Timelines from probe results.
// It never touches the filesystem itself; existence checks go through the
// optional ExistsFunc.
type Builder struct {
	validate *validator.Validate
	exists   ExistsFunc
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithExistsCheck installs a file existence check run during Validate.
func WithExistsCheck(fn ExistsFunc) BuilderOption {
	return func(b *Builder) {
		b.exists = fn
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their document names so errors match what callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	b := &Builder{validate: v}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Validate checks a normalized request without probing anything.
// It returns a *ValidationError, an *UnsupportedSubtitleFormatError, or nil.
func (b *Builder) Validate(req Request) error {
	if len(req.Scenes) > 0 && req.BaseVideo != "" {
		return &ValidationError{Field: "base_video", Path: req.BaseVideo, Err: ErrAmbiguousMode}
	}
	if req.Mode() == ModeImages && len(req.Scenes) == 0 {
		return &ValidationError{Field: "scenes", Err: ErrMissingPrimaryStream}
	}

	if err := b.validate.Struct(req); err != nil {
		return translateValidation(err)
	}

	if req.Subtitle != "" {
		if _, err := ParseSubtitle(req.Subtitle); err != nil {
			return err
		}
	}

	if b.exists != nil {
		paths := req.ProbeTargets()
		if req.Subtitle != "" {
			paths = append(paths, req.Subtitle)
		}
		for _, p := range paths {
			if err := b.exists(p); err != nil {
				return &ValidationError{Field: "inputs", Path: p, Err: fmt.Errorf("%w: %w", ErrMissingFile, err)}
			}
		}
	}

	return nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "request", Err: err}
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Err: ErrEmptyPath}
	case "min":
		return &ValidationError{Field: field, Err: fmt.Errorf("%w (got %v)", ErrNegativeDuration, fe.Value())}
	default:
		return &ValidationError{Field: field, Err: fmt.Errorf("%w: failed %q", ErrInvalidValue, fe.Tag())}
	}
}

// Build assembles a Timeline from a validated request and the probe result
// of every path returned by req.ProbeTargets.
func (b *Builder) Build(req Request, probes map[string]*media.ProbeResult) (*Timeline, error) {
	tl := &Timeline{Mode: req.Mode()}

	if req.Subtitle != "" {
		sub, err := ParseSubtitle(req.Subtitle)
		if err != nil {
			return nil, err
		}
		tl.Subtitle = sub
	}

	nextInput := 0
	switch tl.Mode {
	case ModeImages:
		for i, in := range req.Scenes {
			field := fmt.Sprintf("scenes[%d].image_path", i)
			p, err := lookup(probes, in.ImagePath, field)
			if err != nil {
				return nil, err
			}
			if !p.HasVideo {
				return nil, &ValidationError{Field: field, Path: in.ImagePath, Err: ErrMissingPrimaryStream}
			}
			scene := Scene{ImagePath: in.ImagePath, DurationMs: in.DurationMs, Input: i}
			if p.Video != nil {
				scene.Width, scene.Height = p.Video.Width, p.Video.Height
			}
			tl.Scenes = append(tl.Scenes, scene)
		}
		nextInput = len(tl.Scenes)
		totalMs := lo.SumBy(tl.Scenes, func(s Scene) int64 { return s.DurationMs })
		tl.TotalDurationSec = float64(totalMs) / 1000
		if totalMs == 0 {
			return nil, &ValidationError{Field: "scenes", Err: ErrZeroDuration}
		}

	case ModeVideo:
		p, err := lookup(probes, req.BaseVideo, "base_video")
		if err != nil {
			return nil, err
		}
		if !p.HasVideo {
			return nil, &ValidationError{Field: "base_video", Path: req.BaseVideo, Err: ErrMissingPrimaryStream}
		}
		if p.DurationSec <= 0 {
			return nil, &ValidationError{Field: "base_video", Path: req.BaseVideo, Err: ErrZeroDuration}
		}
		tl.BaseVideo = &BaseVideo{Path: req.BaseVideo, DurationSec: p.DurationSec, Input: 0, HasAudio: p.HasAudio}
		tl.TotalDurationSec = p.DurationSec
		nextInput = 1

		if p.HasAudio && !req.MuteOriginal {
			tl.Tracks = append(tl.Tracks, newTrack(req.BaseVideo, 0, 0, p, true))
		}
	}

	for i, in := range req.Audio {
		field := fmt.Sprintf("audio[%d].path", i)
		p, err := lookup(probes, in.Path, field)
		if err != nil {
			return nil, err
		}
		if !p.HasAudio {
			return nil, &ValidationError{Field: field, Path: in.Path, Err: ErrNoAudioStream}
		}
		tl.Tracks = append(tl.Tracks, newTrack(in.Path, in.StartOffsetMs, nextInput+i, p, false))
	}

	return tl, nil
}

func newTrack(path string, offsetMs int64, input int, p *media.ProbeResult, original bool) AudioTrack {
	t := AudioTrack{
		Path:              path,
		StartOffsetMs:     offsetMs,
		ProbedDurationSec: p.DurationSec,
		Input:             input,
		Original:          original,
	}
	if p.Audio != nil {
		t.Channels = p.Audio.Channels
		t.SampleRate = p.Audio.SampleRate
	}
	return t
}

func lookup(probes map[string]*media.ProbeResult, path, field string) (*media.ProbeResult, error) {
	p, ok := probes[path]
	if !ok || p == nil {
		return nil, &ValidationError{Field: field, Path: path, Err: ErrNotProbed}
	}
	return p, nil
}
