// Package media wraps the external ffprobe and ffmpeg binaries: probing
// stream metadata from files and running a compiled filter graph to produce
// the final composition.
package media

import "context"

// Prober extracts stream metadata from a media file.
type Prober interface {
	// Probe returns the duration and stream properties of the file at path.
	// Failures are reported as *ProbeError.
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// Encoder runs the encoding engine for a compiled composition.
type Encoder interface {
	// Encode runs the engine to completion. Diagnostic lines are forwarded to
	// sink as they arrive; sink may be nil. A non-zero exit is reported as
	// *EncodeError. Encode never retries.
	Encode(ctx context.Context, req EncodeRequest, sink LineSink) error
}

// LineSink receives engine diagnostic lines in the order they were written.
type LineSink func(line string)
