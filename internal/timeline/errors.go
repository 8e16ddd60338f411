package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors for timeline validation.
var (
	// ErrEmptyPath is returned when a required file path is blank.
	ErrEmptyPath = errors.New("path is required")
	// ErrNegativeDuration is returned for a negative duration or offset.
	ErrNegativeDuration = errors.New("must not be negative")
	// ErrInvalidValue is returned when a field fails any other validation rule.
	ErrInvalidValue = errors.New("invalid value")
	// ErrMissingFile is returned when the existence check rejects a path.
	ErrMissingFile = errors.New("file does not exist")
	// ErrNoAudioStream is returned when an audio input carries no audio stream.
	ErrNoAudioStream = errors.New("no audio stream")
	// ErrAmbiguousMode is returned when both scenes and a base video are given.
	ErrAmbiguousMode = errors.New("scenes and base_video are mutually exclusive")
	// ErrZeroDuration is returned when the timeline would be zero seconds long.
	ErrZeroDuration = errors.New("timeline has zero duration")
	// ErrNotProbed is returned when Build is missing the probe result for a path.
	ErrNotProbed = errors.New("no probe result")
	// ErrMissingPrimaryStream is returned when an image composition has no
	// scenes or a video composition's base has no video stream.
	ErrMissingPrimaryStream = errors.New("missing primary video stream")
	// ErrUnsupportedSubtitleFormat matches any UnsupportedSubtitleFormatError.
	ErrUnsupportedSubtitleFormat = errors.New("unsupported subtitle format")
)

// ValidationError reports which field (and file, when there is one) failed.
type ValidationError struct {
	// Field is the request field, e.g. "scenes[2].duration_ms".
	Field string
	// Path is the file the field refers to, if any.
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("validation: %s (%s): %v", e.Field, e.Path, e.Err)
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UnsupportedSubtitleFormatError names the rejected extension and the allowed set.
type UnsupportedSubtitleFormatError struct {
	Path    string
	Ext     string
	Allowed []string
}

func (e *UnsupportedSubtitleFormatError) Error() string {
	return fmt.Sprintf("unsupported subtitle format %q for %s (allowed: %s)",
		e.Ext, e.Path, strings.Join(e.Allowed, ", "))
}

func (e *UnsupportedSubtitleFormatError) Unwrap() error {
	return ErrUnsupportedSubtitleFormat
}
