// Package server provides the HTTP surface of the media composer.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/samber/lo"

	"github.com/maauso/mediacomposer/internal/audio"
	"github.com/maauso/mediacomposer/internal/compose"
	"github.com/maauso/mediacomposer/internal/job"
	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// SceneRequest is one scene of a composition request.
type SceneRequest struct {
	// ImagePath is the still image shown for the scene.
	ImagePath string `json:"image_path" validate:"required"`
	// DurationMs is how long the scene is shown.
	DurationMs int64 `json:"duration_ms" validate:"min=0"`
}

// AudioRequest is one overlay audio track.
type AudioRequest struct {
	// Path is the audio file.
	Path string `json:"path" validate:"required"`
	// StartOffsetMs is where the track starts on the timeline.
	StartOffsetMs int64 `json:"start_offset_ms" validate:"min=0"`
}

// CompositionRequest is the HTTP request body for composing and planning.
type CompositionRequest struct {
	// Scenes lists the images of a slideshow composition.
	Scenes []SceneRequest `json:"scenes" validate:"omitempty,max=1000,dive"`
	// BaseVideo is the video to overlay audio and subtitles on.
	BaseVideo string `json:"base_video"`
	// Audio lists the overlay tracks.
	Audio []AudioRequest `json:"audio" validate:"omitempty,max=64,dive"`
	// Subtitle is an optional .srt or .ass file to burn in.
	Subtitle string `json:"subtitle"`
	// MuteOriginal drops the base video's own audio.
	MuteOriginal bool `json:"mute_original"`
	// OutputPath is where to write the result. A workspace path is used when empty.
	OutputPath string `json:"output_path"`
	// Publish uploads the result to S3 after encoding.
	Publish bool `json:"publish"`
	// Records carries scenes and tracks as generic records.
	Records *timeline.RecordSource `json:"records,omitempty"`
}

// toTimeline converts the DTO into a domain request.
func (r CompositionRequest) toTimeline() timeline.Request {
	return timeline.Request{
		Scenes: lo.Map(r.Scenes, func(s SceneRequest, _ int) timeline.SceneInput {
			return timeline.SceneInput{ImagePath: s.ImagePath, DurationMs: s.DurationMs}
		}),
		BaseVideo: r.BaseVideo,
		Audio: lo.Map(r.Audio, func(a AudioRequest, _ int) timeline.AudioInput {
			return timeline.AudioInput{Path: a.Path, StartOffsetMs: a.StartOffsetMs}
		}),
		Subtitle:     r.Subtitle,
		MuteOriginal: r.MuteOriginal,
		OutputPath:   r.OutputPath,
		Publish:      r.Publish,
		Records:      r.Records,
	}
}

// CreateCompositionResponse is the HTTP response after submitting a composition.
type CreateCompositionResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// CompositionResponse is the HTTP response for getting job details.
type CompositionResponse struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	OutputPath       string     `json:"output_path,omitempty"`
	URL              string     `json:"url,omitempty"`
	TotalDurationSec float64    `json:"total_duration_sec,omitempty"`
	ScenesProcessed  int        `json:"scenes_processed"`
	TracksProcessed  int        `json:"tracks_processed"`
	SubtitleBurned   bool       `json:"subtitle_burned"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func newCompositionResponse(j *job.Job) CompositionResponse {
	return CompositionResponse{
		ID:               j.ID,
		Status:           string(j.Status),
		OutputPath:       j.OutputPath,
		URL:              j.URL,
		TotalDurationSec: j.TotalDurationSec,
		ScenesProcessed:  j.ScenesProcessed,
		TracksProcessed:  j.TracksProcessed,
		SubtitleBurned:   j.SubtitleBurned,
		Error:            j.Error,
		CreatedAt:        j.CreatedAt,
		StartedAt:        optionalTime(j.StartedAt),
		CompletedAt:      optionalTime(j.CompletedAt),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ListCompositionsResponse wraps every known job.
type ListCompositionsResponse struct {
	Compositions []CompositionResponse `json:"compositions"`
}

// InputResponse is one engine input of a plan.
type InputResponse struct {
	Path    string   `json:"path"`
	Options []string `json:"options,omitempty"`
}

// SkippedTrackResponse describes an audio track left out of the mix.
type SkippedTrackResponse struct {
	Path                 string  `json:"path"`
	Input                int     `json:"input"`
	StartOffsetSec       float64 `json:"start_offset_sec"`
	ProbedDurationSec    float64 `json:"probed_duration_sec"`
	EffectiveDurationSec float64 `json:"effective_duration_sec"`
}

// PlanResponse is the dry-run result: the compiled program without encoding.
type PlanResponse struct {
	Inputs           []InputResponse        `json:"inputs"`
	Graph            string                 `json:"graph"`
	VideoMap         string                 `json:"video_map"`
	AudioMap         string                 `json:"audio_map"`
	Reencode         bool                   `json:"reencode"`
	TotalDurationSec float64                `json:"total_duration_sec"`
	ScenesProcessed  int                    `json:"scenes_processed"`
	TracksProcessed  int                    `json:"tracks_processed"`
	SubtitleBurned   bool                   `json:"subtitle_burned"`
	MixStrategy      string                 `json:"mix_strategy"`
	SkippedTracks    []SkippedTrackResponse `json:"skipped_tracks"`
	SkippedScenes    []int                  `json:"skipped_scenes"`
}

func newPlanResponse(p *compose.Program) PlanResponse {
	resp := PlanResponse{
		Graph:            p.Graph,
		VideoMap:         p.VideoMap,
		AudioMap:         p.AudioMap,
		Reencode:         p.Reencode,
		TotalDurationSec: p.TotalDurationSec,
		ScenesProcessed:  p.ScenesProcessed,
		TracksProcessed:  p.TracksProcessed,
		SubtitleBurned:   p.SubtitleBurned,
		MixStrategy:      p.MixStrategy,
		SkippedScenes:    p.SkippedScenes,
	}
	resp.Inputs = lo.Map(p.Inputs, func(in media.Input, _ int) InputResponse {
		return InputResponse{Path: in.Path, Options: in.Options}
	})
	resp.SkippedTracks = lo.Map(p.Skipped, func(s audio.SkippedTrack, _ int) SkippedTrackResponse {
		return SkippedTrackResponse{
			Path:                 s.Path,
			Input:                s.Input,
			StartOffsetSec:       s.StartOffsetSec,
			ProbedDurationSec:    s.ProbedDurationSec,
			EffectiveDurationSec: s.EffectiveDurationSec,
		}
	})
	if resp.SkippedScenes == nil {
		resp.SkippedScenes = []int{}
	}
	return resp
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
	// Field is the offending request field, when known.
	Field string `json:"field,omitempty"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
