// Package video plans the video half of a composition: either a normalized,
// concatenated slideshow of still images or a base video passed through
// untouched, each optionally with subtitles burned in.
package video

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/maauso/mediacomposer/internal/filtergraph"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// Static errors for video planning.
var (
	// ErrInvalidOptions is returned when planner options are unusable.
	ErrInvalidOptions = errors.New("invalid video options")
	// ErrNoScenes is returned when no scene has a positive duration.
	ErrNoScenes = errors.New("no scene with a positive duration")
	// ErrNoBaseVideo is returned when video mode is planned without a base.
	ErrNoBaseVideo = errors.New("base video is required")
)

// Options configures the video planner.
type Options struct {
	// Width and Height are the target canvas in pixels.
	// Default: 1920x1080.
	Width  int
	Height int

	// FPS is the target frame rate.
	// Default: 25.
	FPS int

	// Zoom enables the Ken Burns effect on every scene.
	// Default: false.
	Zoom bool

	// ZoomMax is the zoom factor reached at the last frame of a scene.
	// Default: 1.1.
	ZoomMax float64

	// PixelFormat is the pixel format scenes are converted to.
	// Default: yuv420p.
	PixelFormat string
}

// DefaultOptions returns the default video planner options.
func DefaultOptions() Options {
	return Options{
		Width:       1920,
		Height:      1080,
		FPS:         25,
		ZoomMax:     1.1,
		PixelFormat: "yuv420p",
	}
}

// Validate reports whether the options can produce a valid graph.
func (o Options) Validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidOptions, o.Width, o.Height)
	case o.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalidOptions, o.FPS)
	case o.Zoom && o.ZoomMax < 1:
		return fmt.Errorf("%w: zoom max %v is below 1", ErrInvalidOptions, o.ZoomMax)
	case o.PixelFormat == "":
		return fmt.Errorf("%w: pixel format is required", ErrInvalidOptions)
	}
	return nil
}

// Plan is the video planner's product.
type Plan struct {
	// Nodes are the statements in emission order. Empty when the base video
	// is mapped directly.
	Nodes []filtergraph.Node
	// Output is the node label or stream specifier to map as video.
	Output string
	// Reencode is false only when the base video can be stream-copied.
	Reencode bool
	// SubtitleBurned reports whether a subtitles node was emitted.
	SubtitleBurned bool
	// Scenes is the number of scenes rendered into the concat.
	Scenes int
	// SkippedScenes lists the inputs of zero-length scenes left out.
	SkippedScenes []int
}

// subtitleNode wraps the escaped path in single quotes. ffmpeg reads
// backslashes inside quotes literally, so a path containing a single quote
// does not reach the filter intact.
func subtitleNode(in string, sub *timeline.Subtitle, out string) filtergraph.Node {
	return filtergraph.Node{
		ID:     out,
		Kind:   filtergraph.KindSubtitle,
		Filter: "subtitles",
		Inputs: []string{in},
		Params: []filtergraph.Param{
			filtergraph.Pos("'" + filtergraph.EscapeSubtitlePath(sub.Path) + "'"),
		},
	}
}

func size(w, h int) string {
	return strconv.Itoa(w) + "x" + strconv.Itoa(h)
}
