package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Static errors for encode requests.
var (
	// ErrNoInputs is returned when an encode request lists no inputs.
	ErrNoInputs = errors.New("no inputs provided")
	// ErrEmptyGraph is returned when an encode request carries no filter graph.
	ErrEmptyGraph = errors.New("filter graph is empty")
	// ErrNoOutputPath is returned when an encode request has no destination.
	ErrNoOutputPath = errors.New("output path is required")
	// ErrMissingMap is returned when the video or audio map is empty.
	ErrMissingMap = errors.New("video and audio maps are required")
)

// logTailLines is how many trailing stderr lines an EncodeError keeps.
const logTailLines = 20

// Input is one -i argument together with the options that precede it.
type Input struct {
	Path    string
	Options []string
}

// EncodingOptions are the codec settings applied to the output.
type EncodingOptions struct {
	// CopyVideo stream-copies the mapped video instead of re-encoding it.
	CopyVideo    bool
	VideoCodec   string
	Preset       string
	// CRF of zero leaves rate control to the encoder default.
	CRF          int
	PixelFormat  string
	AudioCodec   string
	AudioBitrate string
}

// DefaultEncodingOptions returns H.264/AAC settings suitable for web playback.
func DefaultEncodingOptions() EncodingOptions {
	return EncodingOptions{
		VideoCodec:   "libx264",
		Preset:       "fast",
		CRF:          23,
		PixelFormat:  "yuv420p",
		AudioCodec:   "aac",
		AudioBitrate: "192k",
	}
}

// EncodeRequest describes one ffmpeg invocation.
type EncodeRequest struct {
	Inputs     []Input
	Graph      string
	VideoMap   string
	AudioMap   string
	Options    EncodingOptions
	OutputPath string
}

// EncodeError reports a non-zero ffmpeg exit with the tail of its log.
type EncodeError struct {
	ExitCode int
	Args     []string
	Log      []string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %v\nargs: %v\nlog:\n%s",
		e.ExitCode, e.Err, e.Args, strings.Join(e.Log, "\n"))
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// FFmpegEncoder implements Encoder using the ffmpeg CLI.
type FFmpegEncoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegEncoder creates a new FFmpegEncoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegEncoder(ffmpegPath string) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegEncoder{ffmpegPath: ffmpegPath}
}

// Args builds the ffmpeg argument list for req without running anything.
func (e *FFmpegEncoder) Args(req EncodeRequest) ([]string, error) {
	switch {
	case len(req.Inputs) == 0:
		return nil, ErrNoInputs
	case strings.TrimSpace(req.Graph) == "":
		return nil, ErrEmptyGraph
	case req.VideoMap == "" || req.AudioMap == "":
		return nil, ErrMissingMap
	case req.OutputPath == "":
		return nil, ErrNoOutputPath
	}

	args := []string{"-y", "-hide_banner"}
	for _, in := range req.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	args = append(args,
		"-filter_complex", req.Graph,
		"-map", req.VideoMap,
		"-map", req.AudioMap,
	)

	opts := req.Options
	if opts.CopyVideo {
		args = append(args, "-c:v", "copy")
	} else {
		args = appendIfSet(args, "-c:v", opts.VideoCodec)
		args = appendIfSet(args, "-preset", opts.Preset)
		if opts.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(opts.CRF))
		}
		args = appendIfSet(args, "-pix_fmt", opts.PixelFormat)
	}
	args = appendIfSet(args, "-c:a", opts.AudioCodec)
	args = appendIfSet(args, "-b:a", opts.AudioBitrate)
	args = append(args, "-movflags", "+faststart", req.OutputPath)

	return args, nil
}

func appendIfSet(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

// Encode implements Encoder.
func (e *FFmpegEncoder) Encode(ctx context.Context, req EncodeRequest, sink LineSink) error {
	args, err := e.Args(req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("attach stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	tail := streamLines(stderr, sink, logTailLines)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &EncodeError{ExitCode: code, Args: args, Log: tail, Err: err}
	}

	return nil
}

// streamLines forwards every line of r to sink and returns the last n lines.
// Progress updates terminated by '\r' count as separate lines.
func streamLines(r io.Reader, sink LineSink, n int) []string {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLogLines)

	tail := make([]string, 0, n)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sink != nil {
			sink(line)
		}
		if len(tail) == n {
			tail = append(tail[:0], tail[1:]...)
		}
		tail = append(tail, line)
	}
	// Drain so the process never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
	return tail
}

// scanLogLines is bufio.ScanLines that also splits on carriage returns.
func scanLogLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
