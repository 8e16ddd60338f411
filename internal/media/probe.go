package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrProbeFailed matches every *ProbeError.
var ErrProbeFailed = errors.New("probe failed")

// ProbeError reports an unreadable or corrupt media file.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Is reports ErrProbeFailed as a match so callers need not know the type.
func (e *ProbeError) Is(target error) bool {
	return target == ErrProbeFailed
}

// VideoInfo holds the properties of the primary video stream.
type VideoInfo struct {
	Width  int
	Height int
	Codec  string
	FPS    float64
}

// AudioInfo holds the properties of the first audio stream.
type AudioInfo struct {
	Codec      string
	SampleRate int
	Channels   int
}

// ProbeResult is the parsed output of one ffprobe call.
type ProbeResult struct {
	Path        string
	DurationSec float64
	HasVideo    bool
	HasAudio    bool
	Video       *VideoInfo
	Audio       *AudioInfo
}

// ProbeFunc runs ffprobe on path and returns its JSON output.
type ProbeFunc func(path string, timeout time.Duration) (string, error)

// FFprobe implements Prober on top of ffmpeg-go's ffprobe wrapper.
type FFprobe struct {
	timeout time.Duration
	run     ProbeFunc
}

// ProbeOption configures an FFprobe.
type ProbeOption func(*FFprobe)

// WithProbeFunc replaces the ffprobe invocation, mainly for tests.
func WithProbeFunc(fn ProbeFunc) ProbeOption {
	return func(p *FFprobe) {
		p.run = fn
	}
}

// NewFFprobe creates a prober. A zero timeout means no limit beyond the
// context deadline.
func NewFFprobe(timeout time.Duration, opts ...ProbeOption) *FFprobe {
	p := &FFprobe{
		timeout: timeout,
		run: func(path string, timeout time.Duration) (string, error) {
			return ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{"v": "error"})
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe implements Prober.
func (p *FFprobe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &ProbeError{Path: path, Err: context.DeadlineExceeded}
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}

	out, err := p.run(path, timeout)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}

	res, err := ParseProbeJSON([]byte(out))
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	res.Path = path
	return res, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string         `json:"codec_type"`
	CodecName    string         `json:"codec_name"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	AvgFrameRate string         `json:"avg_frame_rate"`
	RFrameRate   string         `json:"r_frame_rate"`
	SampleRate   string         `json:"sample_rate"`
	Channels     int            `json:"channels"`
	Duration     string         `json:"duration"`
	Disposition  map[string]int `json:"disposition"`
}

// ParseProbeJSON converts raw ffprobe JSON into a ProbeResult. Exported so it
// can be tested without an ffprobe binary.
func ParseProbeJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	res := &ProbeResult{DurationSec: parseFloat(raw.Format.Duration)}
	var streamDuration float64

	for _, s := range raw.Streams {
		streamDuration = max(streamDuration, parseFloat(s.Duration))
		switch s.CodecType {
		case "video":
			// Cover art in audio files is not a primary stream.
			if s.Disposition["attached_pic"] == 1 || res.Video != nil {
				continue
			}
			fps := parseFrameRate(s.AvgFrameRate)
			if fps == 0 {
				fps = parseFrameRate(s.RFrameRate)
			}
			res.HasVideo = true
			res.Video = &VideoInfo{Width: s.Width, Height: s.Height, Codec: s.CodecName, FPS: fps}
		case "audio":
			if res.Audio != nil {
				continue
			}
			sr, _ := strconv.Atoi(s.SampleRate)
			res.HasAudio = true
			res.Audio = &AudioInfo{Codec: s.CodecName, SampleRate: sr, Channels: s.Channels}
		}
	}

	if res.DurationSec == 0 {
		res.DurationSec = streamDuration
	}
	return res, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseFrameRate parses ffprobe's "num/den" notation; "0/0" yields 0.
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}
