// Package timeline holds the typed composition model: scenes, audio tracks,
// an optional subtitle and the derived total duration. It also validates raw
// requests and turns them, together with probe results, into a Timeline.
package timeline

// Mode selects how the video stream of a composition is produced.
type Mode string

const (
	// ModeImages builds the video from still images, one per scene.
	ModeImages Mode = "images"
	// ModeVideo composes audio and subtitles onto an existing video.
	ModeVideo Mode = "video"
)

// Scene is one still image shown for a fixed duration.
type Scene struct {
	// ImagePath is the image file shown during this scene.
	ImagePath string
	// DurationMs is how long the image is shown, in milliseconds.
	DurationMs int64
	// Input is the index of the image among the engine inputs.
	Input int
	// Width and Height are the probed source dimensions, informational only.
	Width  int
	Height int
}

// DurationSec returns the scene duration in seconds.
func (s Scene) DurationSec() float64 {
	return float64(s.DurationMs) / 1000
}

// AudioTrack is one audio source placed at an offset inside the timeline.
type AudioTrack struct {
	// Path is the source file.
	Path string
	// StartOffsetMs is where the track starts on the timeline.
	StartOffsetMs int64
	// ProbedDurationSec is the source duration reported by the probe.
	ProbedDurationSec float64
	// Channels is the probed channel count (0 when unknown).
	Channels int
	// SampleRate is the probed sample rate in Hz (0 when unknown).
	SampleRate int
	// Input is the index of the source among the engine inputs.
	Input int
	// Original marks the pseudo-track carrying the base video's own audio.
	Original bool
}

// StartOffsetSec returns the start offset in seconds.
func (t AudioTrack) StartOffsetSec() float64 {
	return float64(t.StartOffsetMs) / 1000
}

// BaseVideo is the existing video a ModeVideo composition is built on.
type BaseVideo struct {
	Path        string
	DurationSec float64
	Input       int
	HasAudio    bool
}

// Timeline is the validated, typed description of one composition.
// It is built once per request and is never mutated by the planners.
type Timeline struct {
	Mode      Mode
	Scenes    []Scene
	BaseVideo *BaseVideo
	Tracks    []AudioTrack
	Subtitle  *Subtitle
	// TotalDurationSec is the sum of scene durations, or the base video's
	// probed duration in ModeVideo.
	TotalDurationSec float64
}

// InputPaths returns the engine input files in input-index order.
func (t *Timeline) InputPaths() []string {
	var paths []string
	switch t.Mode {
	case ModeImages:
		for _, s := range t.Scenes {
			paths = append(paths, s.ImagePath)
		}
	case ModeVideo:
		if t.BaseVideo != nil {
			paths = append(paths, t.BaseVideo.Path)
		}
	}
	for _, tr := range t.Tracks {
		if tr.Original {
			continue
		}
		paths = append(paths, tr.Path)
	}
	return paths
}
