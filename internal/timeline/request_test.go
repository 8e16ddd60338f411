package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	doc := `
scenes:
  - image_path: a.png
    duration_ms: 2000
  - image_path: b.png
    duration_ms: 3000
audio:
  - path: voice.mp3
    start_offset_ms: 1000
subtitle: subs.srt
output_path: out.mp4
`
	req, err := DecodeRequest(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, ModeImages, req.Mode())
	assert.Len(t, req.Scenes, 2)
	assert.Equal(t, int64(3000), req.Scenes[1].DurationMs)
	assert.Equal(t, int64(1000), req.Audio[0].StartOffsetMs)
	assert.Equal(t, "subs.srt", req.Subtitle)
	assert.Equal(t, "out.mp4", req.OutputPath)
}

func TestDecodeRequest_JSON(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"base_video": "in.mp4", "mute_original": true}`))
	require.NoError(t, err)
	assert.Equal(t, ModeVideo, req.Mode())
	assert.True(t, req.MuteOriginal)
}

func TestDecodeRequest_Errors(t *testing.T) {
	_, err := DecodeRequest(strings.NewReader(""))
	assert.Error(t, err)

	_, err = DecodeRequest(strings.NewReader("scenes: []\nunknown_field: 1\n"))
	assert.Error(t, err)
}

func TestProbeTargets(t *testing.T) {
	req := Request{
		Scenes: []SceneInput{{ImagePath: "a.png"}, {ImagePath: "b.png"}, {ImagePath: "a.png"}},
		Audio:  []AudioInput{{Path: "v.mp3"}, {Path: "v.mp3"}},
	}
	assert.Equal(t, []string{"a.png", "b.png", "v.mp3"}, req.ProbeTargets())

	video := Request{BaseVideo: "in.mp4", Audio: []AudioInput{{Path: "m.mp3"}}}
	assert.Equal(t, []string{"in.mp4", "m.mp3"}, video.ProbeTargets())
}

func TestNormalize(t *testing.T) {
	req := Request{
		Scenes: []SceneInput{{ImagePath: "first.png", DurationMs: 100}},
		Records: &RecordSource{
			Scenes: []map[string]any{
				{"img": "r1.png", "secs": 1.5},
				{"img": "r2.png", "secs": "2"},
			},
			Audio: []map[string]any{
				{"file": "voice.mp3", "at": 0.25},
				{"file": "music.mp3"},
			},
			Mapping: RecordMapping{
				ImageField:     "img",
				DurationField:  "secs",
				AudioPathField: "file",
				OffsetField:    "at",
				Unit:           UnitSeconds,
			},
		},
	}

	out, err := Normalize(req)
	require.NoError(t, err)

	assert.Nil(t, out.Records)
	assert.Equal(t, []SceneInput{
		{ImagePath: "first.png", DurationMs: 100},
		{ImagePath: "r1.png", DurationMs: 1500},
		{ImagePath: "r2.png", DurationMs: 2000},
	}, out.Scenes)
	assert.Equal(t, []AudioInput{
		{Path: "voice.mp3", StartOffsetMs: 250},
		{Path: "music.mp3"},
	}, out.Audio)

	assert.Len(t, req.Scenes, 1, "input request must not be modified")
	assert.NotNil(t, req.Records)
}

func TestNormalize_DefaultMapping(t *testing.T) {
	req := Request{Records: &RecordSource{
		Scenes: []map[string]any{{"image": "a.png", "duration": 1200}},
		Audio:  []map[string]any{{"audio": "v.mp3", "start": int64(300)}},
	}}

	out, err := Normalize(req)
	require.NoError(t, err)
	assert.Equal(t, []SceneInput{{ImagePath: "a.png", DurationMs: 1200}}, out.Scenes)
	assert.Equal(t, []AudioInput{{Path: "v.mp3", StartOffsetMs: 300}}, out.Audio)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records RecordSource
		wantErr error
	}{
		{
			name:    "missing image",
			records: RecordSource{Scenes: []map[string]any{{"duration": 10}}},
			wantErr: ErrEmptyPath,
		},
		{
			name:    "non numeric duration",
			records: RecordSource{Scenes: []map[string]any{{"image": "a.png", "duration": "soon"}}},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative offset",
			records: RecordSource{Audio: []map[string]any{{"audio": "a.mp3", "start": -3}}},
			wantErr: ErrNegativeDuration,
		},
		{
			name:    "unknown unit",
			records: RecordSource{Mapping: RecordMapping{Unit: "h"}},
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := tt.records
			_, err := Normalize(Request{Records: &records})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
