package compose

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// mockProber implements media.Prober for testing.
type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, path string) (*media.ProbeResult, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.ProbeResult), args.Error(1)
}

// mockEncoder implements media.Encoder for testing.
type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) Encode(ctx context.Context, req media.EncodeRequest, sink media.LineSink) error {
	args := m.Called(ctx, req, sink)
	return args.Error(0)
}

// mockPublisher implements Publisher for testing.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key string, data io.Reader) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func image() *media.ProbeResult {
	return &media.ProbeResult{HasVideo: true, Video: &media.VideoInfo{Width: 640, Height: 480}}
}

func sound(dur float64, channels int) *media.ProbeResult {
	return &media.ProbeResult{DurationSec: dur, HasAudio: true, Audio: &media.AudioInfo{SampleRate: 44100, Channels: channels}}
}

func slideshowRequest(output string) timeline.Request {
	return timeline.Request{
		Scenes: []timeline.SceneInput{
			{ImagePath: "a.png", DurationMs: 2000},
			{ImagePath: "b.png", DurationMs: 3000},
			{ImagePath: "c.png", DurationMs: 1000},
		},
		Audio: []timeline.AudioInput{
			{Path: "voice.mp3", StartOffsetMs: 1000},
			{Path: "music.mp3", StartOffsetMs: 5000},
		},
		OutputPath: output,
	}
}

func expectSlideshowProbes(p *mockProber) {
	p.On("Probe", mock.Anything, "a.png").Return(image(), nil)
	p.On("Probe", mock.Anything, "b.png").Return(image(), nil)
	p.On("Probe", mock.Anything, "c.png").Return(image(), nil)
	p.On("Probe", mock.Anything, "voice.mp3").Return(sound(4, 1), nil)
	p.On("Probe", mock.Anything, "music.mp3").Return(sound(10, 2), nil)
}

func newTestComposer(opts ...ComposerOption) (*Composer, *mockProber, *mockEncoder) {
	prober := &mockProber{}
	encoder := &mockEncoder{}
	opts = append([]ComposerOption{WithLogger(testLogger())}, opts...)
	return NewComposer(prober, encoder, DefaultOptions(), opts...), prober, encoder
}

func TestCompose_Success(t *testing.T) {
	c, prober, encoder := newTestComposer()
	expectSlideshowProbes(prober)

	var got media.EncodeRequest
	encoder.On("Encode", mock.Anything, mock.AnythingOfType("media.EncodeRequest"), mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(media.EncodeRequest) }).
		Return(nil)

	res, err := c.Compose(context.Background(), slideshowRequest("/out/final.mp4"))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "/out/final.mp4", res.OutputPath)
	assert.Empty(t, res.URL)
	assert.InDelta(t, 6.0, res.TotalDurationSec, 1e-9)
	assert.Equal(t, 3, res.ScenesProcessed)
	assert.Equal(t, 2, res.TracksProcessed)
	assert.False(t, res.SubtitleBurned)

	assert.Equal(t, "/out/final.mp4", got.OutputPath)
	assert.Len(t, got.Inputs, 5)
	assert.Equal(t, "[outv]", got.VideoMap)
	assert.Equal(t, "[outa]", got.AudioMap)
	assert.Contains(t, got.Graph, "amix=inputs=2:duration=longest:dropout_transition=0")
	assert.False(t, got.Options.CopyVideo)

	prober.AssertNumberOfCalls(t, "Probe", 5)
	encoder.AssertExpectations(t)
}

func TestCompose_UnsupportedSubtitleFailsBeforeProbing(t *testing.T) {
	c, prober, encoder := newTestComposer()

	req := slideshowRequest("/out/final.mp4")
	req.Subtitle = "/a:b.txt"
	_, err := c.Compose(context.Background(), req)

	var subErr *timeline.UnsupportedSubtitleFormatError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, ".txt", subErr.Ext)
	prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompose_ValidationFailsBeforeProbing(t *testing.T) {
	c, prober, _ := newTestComposer()

	_, err := c.Compose(context.Background(), timeline.Request{OutputPath: "/out/x.mp4"})
	assert.ErrorIs(t, err, timeline.ErrMissingPrimaryStream)

	_, err = c.Compose(context.Background(), slideshowRequest(""))
	var verr *timeline.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "output_path", verr.Field)

	prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}

func TestCompose_ProbeFailureAborts(t *testing.T) {
	c, prober, encoder := newTestComposer(WithMaxConcurrentProbes(1))
	probeErr := &media.ProbeError{Path: "b.png", Err: errors.New("invalid data found")}

	prober.On("Probe", mock.Anything, "a.png").Return(image(), nil).Maybe()
	prober.On("Probe", mock.Anything, "b.png").Return(nil, probeErr)
	prober.On("Probe", mock.Anything, mock.Anything).Return(image(), nil).Maybe()

	_, err := c.Compose(context.Background(), slideshowRequest("/out/final.mp4"))
	assert.ErrorIs(t, err, media.ErrProbeFailed)

	var pe *media.ProbeError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "b.png", pe.Path)
	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompose_EncodeFailureIsRelayed(t *testing.T) {
	c, prober, encoder := newTestComposer()
	expectSlideshowProbes(prober)

	encErr := &media.EncodeError{ExitCode: 1, Log: []string{"Error opening output file"}, Err: errors.New("exit status 1")}
	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return(encErr).Once()

	_, err := c.Compose(context.Background(), slideshowRequest("/out/final.mp4"))

	var got *media.EncodeError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, got.ExitCode)
	encoder.AssertNumberOfCalls(t, "Encode", 1)
}

func TestCompose_Publish(t *testing.T) {
	out := filepath.Join(t.TempDir(), "final.mp4")
	require.NoError(t, os.WriteFile(out, []byte("mp4"), 0600))

	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, "compositions/job-1.mp4", mock.Anything).
		Return("https://bucket.s3.eu-west-1.amazonaws.com/compositions/job-1.mp4", nil)

	c, prober, encoder := newTestComposer(WithPublisher(publisher))
	expectSlideshowProbes(prober)
	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := slideshowRequest(out)
	req.Publish = true
	req.PublishKey = "job-1"
	res, err := c.Compose(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "https://bucket.s3.eu-west-1.amazonaws.com/compositions/job-1.mp4", res.URL)
	publisher.AssertExpectations(t)
}

func TestCompose_PublishSameFileNameDistinctKeys(t *testing.T) {
	var keys []string
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(1)) }).
		Return("https://example.com/x", nil)

	c, prober, encoder := newTestComposer(WithPublisher(publisher))
	expectSlideshowProbes(prober)
	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for _, dir := range []string{t.TempDir(), t.TempDir()} {
		out := filepath.Join(dir, "out.mp4")
		require.NoError(t, os.WriteFile(out, []byte("mp4"), 0600))

		req := slideshowRequest(out)
		req.Publish = true
		_, err := c.Compose(context.Background(), req)
		require.NoError(t, err)
	}

	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
	for _, key := range keys {
		assert.True(t, strings.HasPrefix(key, "compositions/"), key)
		assert.True(t, strings.HasSuffix(key, ".mp4"), key)
		assert.NotEqual(t, "compositions/out.mp4", key)
	}
}

func TestCompose_PublishWithoutPublisher(t *testing.T) {
	c, prober, _ := newTestComposer()

	req := slideshowRequest("/out/final.mp4")
	req.Publish = true
	_, err := c.Compose(context.Background(), req)

	assert.ErrorIs(t, err, ErrNoPublisher)
	prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}

func TestCompose_LineSink(t *testing.T) {
	var lines []string
	c, prober, encoder := newTestComposer(WithLineSink(func(l string) { lines = append(lines, l) }))
	expectSlideshowProbes(prober)
	encoder.On("Encode", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sink := args.Get(2).(media.LineSink)
			sink("frame=  25 fps=0.0")
		}).
		Return(nil)

	_, err := c.Compose(context.Background(), slideshowRequest("/out/final.mp4"))
	require.NoError(t, err)
	assert.Equal(t, []string{"frame=  25 fps=0.0"}, lines)
}

func TestPlan_VideoMode(t *testing.T) {
	c, prober, encoder := newTestComposer()
	prober.On("Probe", mock.Anything, "in.mp4").Return(&media.ProbeResult{
		DurationSec: 8,
		HasVideo:    true,
		HasAudio:    true,
		Video:       &media.VideoInfo{Width: 1280, Height: 720},
		Audio:       &media.AudioInfo{SampleRate: 48000, Channels: 2},
	}, nil)
	prober.On("Probe", mock.Anything, "music.mp3").Return(sound(3, 2), nil)

	prog, err := c.Plan(context.Background(), timeline.Request{
		BaseVideo: "in.mp4",
		Audio:     []timeline.AudioInput{{Path: "music.mp3", StartOffsetMs: 9000}},
	})
	require.NoError(t, err)

	assert.Equal(t, "0:v:0", prog.VideoMap)
	assert.False(t, prog.Reencode)
	assert.Equal(t, "passthrough", prog.MixStrategy)
	require.Len(t, prog.Skipped, 1)
	assert.Equal(t, "music.mp3", prog.Skipped[0].Path)
	encoder.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlan_Records(t *testing.T) {
	c, prober, _ := newTestComposer()
	prober.On("Probe", mock.Anything, "r.png").Return(image(), nil)

	prog, err := c.Plan(context.Background(), timeline.Request{
		Records: &timeline.RecordSource{
			Scenes: []map[string]any{{"image": "r.png", "duration": 1500}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, prog.ScenesProcessed)
	assert.InDelta(t, 1.5, prog.TotalDurationSec, 1e-9)
	assert.Equal(t, "empty", prog.MixStrategy)
}

func TestNewComposer_Defaults(t *testing.T) {
	c := NewComposer(&mockProber{}, &mockEncoder{}, DefaultOptions(), WithMaxConcurrentProbes(0))
	assert.Equal(t, 4, c.maxProbes)
	assert.NotNil(t, c.logger)
	assert.NotNil(t, c.sink)
	assert.Equal(t, DefaultOptions(), c.Options())
}

func TestValidate(t *testing.T) {
	c, prober, _ := newTestComposer()

	assert.NoError(t, c.Validate(slideshowRequest("/out/final.mp4")))

	req := slideshowRequest("/out/final.mp4")
	req.Scenes[1].DurationMs = -1
	assert.ErrorIs(t, c.Validate(req), timeline.ErrNegativeDuration)

	req = slideshowRequest("/out/final.mp4")
	req.Publish = true
	assert.ErrorIs(t, c.Validate(req), ErrNoPublisher)

	prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}
