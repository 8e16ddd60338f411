// Package compose turns a Timeline into an encoder program and runs the whole
// composition use case: validate, probe, compile, encode and publish.
package compose

import (
	"errors"
	"fmt"

	"github.com/maauso/mediacomposer/internal/audio"
	"github.com/maauso/mediacomposer/internal/filtergraph"
	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/timeline"
	"github.com/maauso/mediacomposer/internal/video"
)

// ErrNilTimeline is returned when Compile is called without a timeline.
var ErrNilTimeline = errors.New("timeline is required")

// Options bundles everything the compiler needs beyond the timeline.
type Options struct {
	Video    video.Options
	Audio    audio.Options
	Encoding media.EncodingOptions
}

// DefaultOptions returns the default compiler options.
func DefaultOptions() Options {
	return Options{
		Video:    video.DefaultOptions(),
		Audio:    audio.DefaultOptions(),
		Encoding: media.DefaultEncodingOptions(),
	}
}

// Program is a compiled composition, ready to hand to an Encoder.
type Program struct {
	Inputs   []media.Input
	Graph    string
	VideoMap string
	AudioMap string
	// Reencode is false only when the base video is stream-copied.
	Reencode         bool
	TotalDurationSec float64
	ScenesProcessed  int
	TracksProcessed  int
	SubtitleBurned   bool
	MixStrategy      string
	Skipped          []audio.SkippedTrack
	SkippedScenes    []int
}

// EncodeRequest builds the engine request for writing the program to output.
func (p *Program) EncodeRequest(enc media.EncodingOptions, output string) media.EncodeRequest {
	enc.CopyVideo = !p.Reencode
	return media.EncodeRequest{
		Inputs:     p.Inputs,
		Graph:      p.Graph,
		VideoMap:   p.VideoMap,
		AudioMap:   p.AudioMap,
		Options:    enc,
		OutputPath: output,
	}
}

// Compile plans both halves of the timeline and serializes them. It is pure:
// the same timeline and options always yield an identical program.
func Compile(tl *timeline.Timeline, opts Options) (*Program, error) {
	if tl == nil {
		return nil, ErrNilTimeline
	}

	labels := filtergraph.NewLabels()

	var (
		vplan *video.Plan
		err   error
	)
	switch tl.Mode {
	case timeline.ModeImages:
		vplan, err = video.PlanScenes(tl.Scenes, tl.Subtitle, labels, opts.Video)
	case timeline.ModeVideo:
		vplan, err = video.PlanBaseVideo(tl.BaseVideo, tl.Subtitle, labels, opts.Video)
	default:
		err = fmt.Errorf("unknown composition mode %q", tl.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("plan video: %w", err)
	}

	aplan, err := audio.PlanTracks(tl.Tracks, tl.TotalDurationSec, labels, opts.Audio)
	if err != nil {
		return nil, fmt.Errorf("plan audio: %w", err)
	}

	rendered, err := filtergraph.Serialize(vplan.Nodes, aplan.Nodes, vplan.Output, aplan.Output)
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}

	return &Program{
		Inputs:           inputs(tl, opts.Video.FPS),
		Graph:            rendered.Text,
		VideoMap:         rendered.VideoMap,
		AudioMap:         rendered.AudioMap,
		Reencode:         vplan.Reencode,
		TotalDurationSec: tl.TotalDurationSec,
		ScenesProcessed:  vplan.Scenes,
		TracksProcessed:  len(aplan.Tracks),
		SubtitleBurned:   vplan.SubtitleBurned,
		MixStrategy:      aplan.Strategy,
		Skipped:          aplan.Skipped,
		SkippedScenes:    vplan.SkippedScenes,
	}, nil
}

// inputs lists the engine inputs in input-index order. Still images are
// looped at the target frame rate so trim can cut them to length.
func inputs(tl *timeline.Timeline, fps int) []media.Input {
	var in []media.Input
	switch tl.Mode {
	case timeline.ModeImages:
		for _, s := range tl.Scenes {
			in = append(in, media.Input{
				Path:    s.ImagePath,
				Options: []string{"-loop", "1", "-framerate", filtergraph.Itoa(fps)},
			})
		}
	case timeline.ModeVideo:
		in = append(in, media.Input{Path: tl.BaseVideo.Path})
	}
	for _, tr := range tl.Tracks {
		if tr.Original {
			continue
		}
		in = append(in, media.Input{Path: tr.Path})
	}
	return in
}
