package filtergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeSubtitlePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain unix path", "/tmp/subs.srt", "/tmp/subs.srt"},
		{"windows path with quote", `C:\subs\a's.srt`, `C\:\\\\subs\\\\a\'s.srt`},
		{"colon in unix path", "/a:b.srt", `/a\:b.srt`},
		{"backslash before colon is not re-escaped", `x\:y`, `x\\\\\:y`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeSubtitlePath(tt.in))
		})
	}
}

func TestLabels_Next(t *testing.T) {
	l := NewLabels()

	assert.Equal(t, "v0", l.Next("v"))
	assert.Equal(t, "v1", l.Next("v"))
	assert.Equal(t, "a0", l.Next("a"))
	assert.Equal(t, "v2", l.Next("v"))
	assert.Equal(t, 3, l.Count("v"))
	assert.Equal(t, 1, l.Count("a"))
}

func TestLabels_Deterministic(t *testing.T) {
	run := func() []string {
		l := NewLabels()
		return []string{l.Next("v"), l.Next("a"), l.Next("v"), l.Next("mix")}
	}
	assert.Equal(t, run(), run())
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "1.000", Seconds(1))
	assert.Equal(t, "0.000", Seconds(0))
	assert.Equal(t, "0.000", Seconds(-0.0001))
	assert.Equal(t, "2.346", Seconds(2.3456))
	assert.Equal(t, "6.000", Seconds(6-0.0000000001))
}

func TestMillis(t *testing.T) {
	assert.Equal(t, int64(1000), Millis(1))
	assert.Equal(t, int64(1235), Millis(1.2346))
	assert.Equal(t, int64(0), Millis(0))
}

func TestNode_String(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "named and positional params",
			node: Node{ID: "v0", Filter: "scale", Inputs: []string{"0:v"},
				Params: []Param{Pos("1920"), Pos("1080"), P("force_original_aspect_ratio", "decrease")}},
			want: "[0:v]scale=1920:1080:force_original_aspect_ratio=decrease[v0]",
		},
		{
			name: "no params",
			node: Node{ID: "outa", Filter: "anull", Inputs: []string{"a4"}},
			want: "[a4]anull[outa]",
		},
		{
			name: "source without inputs",
			node: Node{ID: "outa", Filter: "anullsrc", Params: []Param{P("sample_rate", "44100")}},
			want: "anullsrc=sample_rate=44100[outa]",
		},
		{
			name: "multiple inputs",
			node: Node{ID: "m0", Filter: "amix", Inputs: []string{"a3", "a9"}, Params: []Param{P("inputs", "2")}},
			want: "[a3][a9]amix=inputs=2[m0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.String())
		})
	}
}

func TestIsStreamSpecifier(t *testing.T) {
	assert.True(t, IsStreamSpecifier("0:v"))
	assert.True(t, IsStreamSpecifier("12:a"))
	assert.True(t, IsStreamSpecifier("0:v:0"))
	assert.False(t, IsStreamSpecifier("v0"))
	assert.False(t, IsStreamSpecifier("outa"))
	assert.False(t, IsStreamSpecifier("0:s"))
}

func TestSerialize(t *testing.T) {
	video := []Node{
		{ID: "v0", Filter: "fps", Inputs: []string{"0:v"}, Params: []Param{P("fps", "25")}},
		{ID: VideoOut, Filter: "null", Inputs: []string{"v0"}},
	}
	audio := []Node{
		{ID: AudioOut, Filter: "anullsrc", Params: []Param{P("duration", "6.000")}},
	}

	r, err := Serialize(video, audio, VideoOut, AudioOut)
	require.NoError(t, err)

	assert.Equal(t, "[0:v]fps=fps=25[v0];[v0]null[outv];anullsrc=duration=6.000[outa]", r.Text)
	assert.Equal(t, "[outv]", r.VideoMap)
	assert.Equal(t, "[outa]", r.AudioMap)
	assert.Equal(t, 3, r.Statements)
}

func TestSerialize_StreamSpecifierOutput(t *testing.T) {
	audio := []Node{{ID: AudioOut, Filter: "anull", Inputs: []string{"0:a"}}}

	r, err := Serialize(nil, audio, "0:v:0", AudioOut)
	require.NoError(t, err)
	assert.Equal(t, "0:v:0", r.VideoMap)
	assert.Equal(t, "[0:a]anull[outa]", r.Text)
}

func TestSerialize_Errors(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		_, err := Serialize(nil, nil, VideoOut, AudioOut)
		assert.ErrorIs(t, err, ErrEmptyGraph)
	})

	t.Run("unknown input", func(t *testing.T) {
		nodes := []Node{{ID: "v1", Filter: "null", Inputs: []string{"v0"}}}
		_, err := Serialize(nodes, nil, "v1", "0:a")
		assert.ErrorIs(t, err, ErrUnknownInput)
	})

	t.Run("duplicate label", func(t *testing.T) {
		nodes := []Node{
			{ID: "v0", Filter: "null", Inputs: []string{"0:v"}},
			{ID: "v0", Filter: "null", Inputs: []string{"1:v"}},
		}
		_, err := Serialize(nodes, nil, "v0", "0:a")
		assert.ErrorIs(t, err, ErrDuplicateLabel)
	})

	t.Run("missing designated output", func(t *testing.T) {
		nodes := []Node{{ID: "v0", Filter: "null", Inputs: []string{"0:v"}}}
		_, err := Serialize(nodes, nil, VideoOut, "0:a")
		assert.ErrorIs(t, err, ErrMissingOutput)
	})
}

func TestSerialize_DoesNotMutateInputs(t *testing.T) {
	video := []Node{{ID: VideoOut, Filter: "null", Inputs: []string{"0:v"}}}
	audio := []Node{{ID: AudioOut, Filter: "anull", Inputs: []string{"1:a"}}}
	before := append([]Node(nil), video...)

	first, err := Serialize(video, audio, VideoOut, AudioOut)
	require.NoError(t, err)
	second, err := Serialize(video, audio, VideoOut, AudioOut)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, before, video)
}
