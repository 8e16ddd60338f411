package video

import (
	"math"
	"strconv"

	"github.com/maauso/mediacomposer/internal/filtergraph"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// PlanScenes emits one normalization chain per scene, a concat over all of
// them and a final subtitles or null node producing filtergraph.VideoOut.
// Scenes with zero duration are left out, since trim treats a zero duration
// as unbounded.
func PlanScenes(scenes []timeline.Scene, sub *timeline.Subtitle, labels *filtergraph.Labels, opts Options) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{Output: filtergraph.VideoOut, Reencode: true}
	var outputs []string

	for _, s := range scenes {
		if s.DurationMs <= 0 {
			plan.SkippedScenes = append(plan.SkippedScenes, s.Input)
			continue
		}
		nodes := sceneChain(s, labels, opts)
		plan.Nodes = append(plan.Nodes, nodes...)
		outputs = append(outputs, nodes[len(nodes)-1].ID)
	}
	if len(outputs) == 0 {
		return nil, ErrNoScenes
	}
	plan.Scenes = len(outputs)

	joined := labels.Next("vcat")
	plan.Nodes = append(plan.Nodes, filtergraph.Node{
		ID:     joined,
		Kind:   filtergraph.KindConcat,
		Filter: "concat",
		Inputs: outputs,
		Params: []filtergraph.Param{
			filtergraph.P("n", filtergraph.Itoa(len(outputs))),
			filtergraph.P("v", "1"),
			filtergraph.P("a", "0"),
		},
	})

	if sub != nil {
		plan.Nodes = append(plan.Nodes, subtitleNode(joined, sub, plan.Output))
		plan.SubtitleBurned = true
	} else {
		plan.Nodes = append(plan.Nodes, filtergraph.Node{
			ID:     plan.Output,
			Kind:   filtergraph.KindIdentity,
			Filter: "null",
			Inputs: []string{joined},
		})
	}

	return plan, nil
}

// sceneChain builds scale → pad → setsar → fps → format → [zoompan] → trim → setpts.
func sceneChain(s timeline.Scene, labels *filtergraph.Labels, opts Options) []filtergraph.Node {
	w, h := filtergraph.Itoa(opts.Width), filtergraph.Itoa(opts.Height)
	fps := filtergraph.Itoa(opts.FPS)
	dur := s.DurationSec()

	var nodes []filtergraph.Node
	last := filtergraph.Itoa(s.Input) + ":v"
	add := func(kind filtergraph.Kind, filter string, params ...filtergraph.Param) {
		id := labels.Next("v")
		nodes = append(nodes, filtergraph.Node{
			ID:     id,
			Kind:   kind,
			Filter: filter,
			Inputs: []string{last},
			Params: params,
		})
		last = id
	}

	add(filtergraph.KindScale, "scale",
		filtergraph.Pos(w), filtergraph.Pos(h),
		filtergraph.P("force_original_aspect_ratio", "decrease"),
	)
	add(filtergraph.KindPad, "pad",
		filtergraph.Pos(w), filtergraph.Pos(h),
		filtergraph.Pos("(ow-iw)/2"), filtergraph.Pos("(oh-ih)/2"),
		filtergraph.P("color", "black"),
	)
	add(filtergraph.KindSetSAR, "setsar", filtergraph.Pos("1"))
	add(filtergraph.KindFPS, "fps", filtergraph.Pos(fps))
	add(filtergraph.KindFormat, "format", filtergraph.Pos(opts.PixelFormat))

	if opts.Zoom {
		add(filtergraph.KindZoom, "zoompan", zoomParams(dur, opts)...)
	}

	add(filtergraph.KindTrim, "trim", filtergraph.P("duration", filtergraph.Seconds(dur)))
	add(filtergraph.KindSetPTS, "setpts", filtergraph.Pos("PTS-STARTPTS"))
	return nodes
}

// zoomParams interpolates the zoom linearly from 1 to ZoomMax across the
// scene's frames, keeping the frame centre fixed.
func zoomParams(durSec float64, opts Options) []filtergraph.Param {
	frames := int(math.Round(durSec * float64(opts.FPS)))
	span := max(frames-1, 1)
	delta := strconv.FormatFloat(opts.ZoomMax-1, 'f', 4, 64)

	return []filtergraph.Param{
		filtergraph.P("z", "'1+"+delta+"*on/"+strconv.Itoa(span)+"'"),
		filtergraph.P("x", "'iw/2-(iw/zoom/2)'"),
		filtergraph.P("y", "'ih/2-(ih/zoom/2)'"),
		filtergraph.P("d", "1"),
		filtergraph.P("s", size(opts.Width, opts.Height)),
		filtergraph.P("fps", filtergraph.Itoa(opts.FPS)),
	}
}
