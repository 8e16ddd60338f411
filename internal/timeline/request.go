package timeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// SceneInput is the raw description of one scene.
type SceneInput struct {
	ImagePath  string `yaml:"image_path" json:"image_path" validate:"required"`
	DurationMs int64  `yaml:"duration_ms" json:"duration_ms" validate:"min=0"`
}

// AudioInput is the raw description of one overlay audio track.
type AudioInput struct {
	Path          string `yaml:"path" json:"path" validate:"required"`
	StartOffsetMs int64  `yaml:"start_offset_ms" json:"start_offset_ms" validate:"min=0"`
}

// Request is a composition request as accepted from callers.
// Exactly one of Scenes (or Records.Scenes) and BaseVideo must be set.
type Request struct {
	Scenes       []SceneInput  `yaml:"scenes" json:"scenes" validate:"dive"`
	BaseVideo    string        `yaml:"base_video" json:"base_video"`
	Audio        []AudioInput  `yaml:"audio" json:"audio" validate:"dive"`
	Subtitle     string        `yaml:"subtitle" json:"subtitle"`
	MuteOriginal bool          `yaml:"mute_original" json:"mute_original"`
	OutputPath   string        `yaml:"output_path" json:"output_path"`
	Publish      bool          `yaml:"publish" json:"publish"`
	// PublishKey names the published object. Empty means a generated name.
	PublishKey   string        `yaml:"publish_key" json:"publish_key,omitempty"`
	Records      *RecordSource `yaml:"records,omitempty" json:"records,omitempty"`
}

// Mode reports the composition mode implied by the request.
func (r Request) Mode() Mode {
	if r.BaseVideo != "" && len(r.Scenes) == 0 {
		return ModeVideo
	}
	return ModeImages
}

// ProbeTargets returns every distinct file that must be probed before the
// timeline can be built, in first-seen order.
func (r Request) ProbeTargets() []string {
	var paths []string
	if r.Mode() == ModeVideo {
		paths = append(paths, r.BaseVideo)
	} else {
		paths = append(paths, lo.Map(r.Scenes, func(s SceneInput, _ int) string { return s.ImagePath })...)
	}
	paths = append(paths, lo.Map(r.Audio, func(a AudioInput, _ int) string { return a.Path })...)
	return lo.Uniq(paths)
}

// DecodeRequest reads a request document. YAML and JSON are both accepted.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, fmt.Errorf("decode request: empty document")
		}
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
