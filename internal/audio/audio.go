// Package audio plans the audio half of a composition: per-track
// normalization and timing chains followed by a mix whose shape depends on
// how many tracks survive.
package audio

import (
	"errors"
	"fmt"
)

// GainMode selects the level compensation applied after an N-way mix.
type GainMode string

const (
	// GainFixed applies a constant gain in decibels after mixing.
	GainFixed GainMode = "fixed"
	// GainLinear multiplies the mix by the number of mixed inputs, undoing
	// the 1/N attenuation of the averaging mixer exactly.
	GainLinear GainMode = "linear"
)

// Static errors for audio planning.
var (
	// ErrInvalidOptions is returned when planner options are unusable.
	ErrInvalidOptions = errors.New("invalid audio options")
	// ErrNonPositiveTotal is returned when the timeline length is not positive.
	ErrNonPositiveTotal = errors.New("timeline duration must be positive")
)

// Options configures the audio planner.
type Options struct {
	// SampleRate is the target sample rate in Hz.
	// Default: 44100.
	SampleRate int

	// GainMode selects post-mix compensation for more than one track.
	// Default: GainFixed.
	GainMode GainMode

	// GainDB is the gain applied in GainFixed mode.
	// Default: 4.
	GainDB float64
}

// DefaultOptions returns the default audio planner options.
func DefaultOptions() Options {
	return Options{
		SampleRate: 44100,
		GainMode:   GainFixed,
		GainDB:     4,
	}
}

// Validate reports whether the options can produce a valid graph.
func (o Options) Validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidOptions, o.SampleRate)
	}
	if o.GainMode != GainFixed && o.GainMode != GainLinear {
		return fmt.Errorf("%w: unknown gain mode %q", ErrInvalidOptions, o.GainMode)
	}
	return nil
}
