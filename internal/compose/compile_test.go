package compose

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediacomposer/internal/audio"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// sceneGraph is the normalization chain of one scene at the default options.
func sceneGraph(input, first int, dur string) string {
	l := func(n int) string { return "[v" + strconv.Itoa(first+n) + "]" }
	return "[" + strconv.Itoa(input) + ":v]scale=1920:1080:force_original_aspect_ratio=decrease" + l(0) + ";" +
		l(0) + "pad=1920:1080:(ow-iw)/2:(oh-ih)/2:color=black" + l(1) + ";" +
		l(1) + "setsar=1" + l(2) + ";" +
		l(2) + "fps=25" + l(3) + ";" +
		l(3) + "format=yuv420p" + l(4) + ";" +
		l(4) + "trim=duration=" + dur + l(5) + ";" +
		l(5) + "setpts=PTS-STARTPTS" + l(6)
}

func slideshow() *timeline.Timeline {
	return &timeline.Timeline{
		Mode: timeline.ModeImages,
		Scenes: []timeline.Scene{
			{ImagePath: "a.png", DurationMs: 2000, Input: 0},
			{ImagePath: "b.png", DurationMs: 3000, Input: 1},
			{ImagePath: "c.png", DurationMs: 1000, Input: 2},
		},
		Tracks: []timeline.AudioTrack{
			{Path: "voice.mp3", StartOffsetMs: 1000, ProbedDurationSec: 4, Channels: 1, SampleRate: 48000, Input: 3},
		},
		TotalDurationSec: 6,
	}
}

func TestCompile_Slideshow(t *testing.T) {
	prog, err := Compile(slideshow(), DefaultOptions())
	require.NoError(t, err)

	want := strings.Join([]string{
		sceneGraph(0, 0, "2.000"),
		sceneGraph(1, 7, "3.000"),
		sceneGraph(2, 14, "1.000"),
		"[v6][v13][v20]concat=n=3:v=1:a=0[vcat0]",
		"[vcat0]null[outv]",
		"[3:a]aresample=44100[a0]",
		"[a0]pan=stereo|c0=c0|c1=c0[a1]",
		"[a1]aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=stereo[a2]",
		"[a2]atrim=start=0:end=4.000[a3]",
		"[a3]asetpts=PTS-STARTPTS[a4]",
		"[a4]adelay=delays=1000:all=1[a5]",
		"[a5]apad=pad_dur=1.000[a6]",
		"[a6]anull[outa]",
	}, ";")
	assert.Equal(t, want, prog.Graph)

	assert.Equal(t, "[outv]", prog.VideoMap)
	assert.Equal(t, "[outa]", prog.AudioMap)
	assert.True(t, prog.Reencode)
	assert.Equal(t, 3, prog.ScenesProcessed)
	assert.Equal(t, 1, prog.TracksProcessed)
	assert.False(t, prog.SubtitleBurned)
	assert.InDelta(t, 6.0, prog.TotalDurationSec, 1e-9)

	require.Len(t, prog.Inputs, 4)
	assert.Equal(t, []string{"-loop", "1", "-framerate", "25"}, prog.Inputs[0].Options)
	assert.Equal(t, "voice.mp3", prog.Inputs[3].Path)
	assert.Empty(t, prog.Inputs[3].Options)
}

func TestCompile_Deterministic(t *testing.T) {
	tl := slideshow()
	tl.Tracks = append(tl.Tracks, timeline.AudioTrack{Path: "music.mp3", StartOffsetMs: 5000, ProbedDurationSec: 10, Channels: 2, Input: 4})
	tl.Subtitle = &timeline.Subtitle{Path: "/subs/x.srt", Format: timeline.SubtitleSRT}

	first, err := Compile(tl, DefaultOptions())
	require.NoError(t, err)
	second, err := Compile(tl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Graph, second.Graph)
	assert.Equal(t, "average", first.MixStrategy)
	assert.True(t, first.SubtitleBurned)
	assert.Contains(t, first.Graph, "[vcat0]subtitles='/subs/x.srt'[outv]")
	assert.Contains(t, first.Graph, "[mix0]volume=4dB[outa]")
}

func TestCompile_SkippedTrack(t *testing.T) {
	tl := slideshow()
	tl.Tracks = append(tl.Tracks, timeline.AudioTrack{Path: "late.mp3", StartOffsetMs: 6000, ProbedDurationSec: 3, Channels: 2, Input: 4})

	prog, err := Compile(tl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, prog.TracksProcessed)
	require.Len(t, prog.Skipped, 1)
	assert.Equal(t, "late.mp3", prog.Skipped[0].Path)
	assert.NotContains(t, prog.Graph, "[4:a]")
	// The input is still listed so later indices stay stable.
	assert.Len(t, prog.Inputs, 5)
}

func TestCompile_BaseVideo(t *testing.T) {
	tl := &timeline.Timeline{
		Mode:      timeline.ModeVideo,
		BaseVideo: &timeline.BaseVideo{Path: "in.mp4", DurationSec: 10, Input: 0, HasAudio: true},
		Tracks: []timeline.AudioTrack{
			{Path: "in.mp4", ProbedDurationSec: 10, Channels: 2, Input: 0, Original: true},
			{Path: "music.mp3", StartOffsetMs: 2000, ProbedDurationSec: 30, Channels: 2, Input: 1},
		},
		TotalDurationSec: 10,
	}

	t.Run("stream copy", func(t *testing.T) {
		prog, err := Compile(tl, DefaultOptions())
		require.NoError(t, err)

		assert.Equal(t, "0:v:0", prog.VideoMap)
		assert.False(t, prog.Reencode)
		assert.True(t, strings.HasPrefix(prog.Graph, "[0:a]aresample=44100[a0]"), prog.Graph)
		assert.Equal(t, 2, prog.TracksProcessed)
		require.Len(t, prog.Inputs, 2)
		assert.Equal(t, "in.mp4", prog.Inputs[0].Path)
		assert.Equal(t, "music.mp3", prog.Inputs[1].Path)

		req := prog.EncodeRequest(DefaultOptions().Encoding, "out.mp4")
		assert.True(t, req.Options.CopyVideo)
	})

	t.Run("subtitle forces reencode", func(t *testing.T) {
		withSub := *tl
		withSub.Subtitle = &timeline.Subtitle{Path: "s.vtt", Format: timeline.SubtitleVTT}
		prog, err := Compile(&withSub, DefaultOptions())
		require.NoError(t, err)

		assert.Equal(t, "[outv]", prog.VideoMap)
		assert.True(t, strings.HasPrefix(prog.Graph, "[0:v]subtitles='s.vtt'[outv];"), prog.Graph)
		assert.False(t, prog.EncodeRequest(DefaultOptions().Encoding, "out.mp4").Options.CopyVideo)
	})
}

func TestCompile_NoTracks(t *testing.T) {
	tl := slideshow()
	tl.Tracks = nil

	prog, err := Compile(tl, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(prog.Graph, ";anullsrc=channel_layout=stereo:sample_rate=44100:duration=6.000[outa]"))
	assert.Equal(t, "[outa]", prog.AudioMap)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNilTimeline)

	opts := DefaultOptions()
	opts.Audio.GainMode = "boost"
	_, err = Compile(slideshow(), opts)
	assert.ErrorIs(t, err, audio.ErrInvalidOptions)
}
