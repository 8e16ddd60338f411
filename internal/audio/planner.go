package audio

import (
	"fmt"
	"math"

	"github.com/maauso/mediacomposer/internal/filtergraph"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// Channel-layout normalization expressions for the pan filter.
const (
	panMonoToStereo = "stereo|c0=c0|c1=c0"
	panDownmix      = "stereo|FL<FL+0.5*FC+0.6*BL+0.6*SL|FR<FR+0.5*FC+0.6*BR+0.6*SR"
)

// TrackPlan records the timing computed for one mixed track.
type TrackPlan struct {
	Path                 string
	Input                int
	Original             bool
	EffectiveDurationSec float64
	DelayMs              int64
	// PadDurationSec is the silence appended after the track, already
	// rounded to milliseconds. Zero means no apad node was emitted.
	PadDurationSec float64
	// Output is the label of the last node of the track's chain.
	Output string
}

// SkippedTrack is a track left out of the mix because it starts at or after
// the end of the timeline.
type SkippedTrack struct {
	Path                 string
	Input                int
	StartOffsetSec       float64
	ProbedDurationSec    float64
	EffectiveDurationSec float64
}

// Plan is the audio planner's product.
type Plan struct {
	// Nodes are the statements in emission order, ending with the node that
	// produces Output.
	Nodes   []filtergraph.Node
	Tracks  []TrackPlan
	Skipped []SkippedTrack
	// Strategy is the name of the mix strategy that produced Output.
	Strategy string
	Output   string
}

// PlanTracks emits the audio statements for tracks placed on a timeline of
// totalSec seconds. Tracks are processed in order; labels come from the
// caller's allocator so the result depends only on the arguments.
func PlanTracks(tracks []timeline.AudioTrack, totalSec float64, labels *filtergraph.Labels, opts Options) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if totalSec <= 0 || math.IsNaN(totalSec) {
		return nil, fmt.Errorf("%w: got %v", ErrNonPositiveTotal, totalSec)
	}

	plan := &Plan{Output: filtergraph.AudioOut}
	var outputs []string

	for _, tr := range tracks {
		offset := tr.StartOffsetSec()
		effective := min(tr.ProbedDurationSec, totalSec-offset)
		if filtergraph.Round3(effective) <= 0 {
			plan.Skipped = append(plan.Skipped, SkippedTrack{
				Path:                 tr.Path,
				Input:                tr.Input,
				StartOffsetSec:       offset,
				ProbedDurationSec:    tr.ProbedDurationSec,
				EffectiveDurationSec: effective,
			})
			continue
		}

		nodes, tp := trackChain(tr, effective, totalSec, labels, opts)
		plan.Nodes = append(plan.Nodes, nodes...)
		plan.Tracks = append(plan.Tracks, tp)
		outputs = append(outputs, tp.Output)
	}

	strategy := StrategyFor(len(outputs), totalSec, opts)
	plan.Strategy = strategy.Name()
	plan.Nodes = append(plan.Nodes, strategy.Nodes(labels, outputs, plan.Output)...)

	return plan, nil
}

// trackChain builds resample → [pan] → aformat → atrim → asetpts → [adelay] → [apad].
func trackChain(tr timeline.AudioTrack, effective, totalSec float64, labels *filtergraph.Labels, opts Options) ([]filtergraph.Node, TrackPlan) {
	rate := filtergraph.Itoa(opts.SampleRate)
	source := filtergraph.Itoa(tr.Input) + ":a"

	var nodes []filtergraph.Node
	last := source
	add := func(kind filtergraph.Kind, filter string, params ...filtergraph.Param) {
		id := labels.Next("a")
		nodes = append(nodes, filtergraph.Node{
			ID:     id,
			Kind:   kind,
			Filter: filter,
			Inputs: []string{last},
			Params: params,
		})
		last = id
	}

	add(filtergraph.KindResample, "aresample", filtergraph.Pos(rate))
	switch {
	case tr.Channels == 1:
		add(filtergraph.KindPan, "pan", filtergraph.Pos(panMonoToStereo))
	case tr.Channels > 2:
		add(filtergraph.KindPan, "pan", filtergraph.Pos(panDownmix))
	}
	add(filtergraph.KindAFormat, "aformat",
		filtergraph.P("sample_fmts", "fltp"),
		filtergraph.P("sample_rates", rate),
		filtergraph.P("channel_layouts", "stereo"),
	)
	add(filtergraph.KindTrim, "atrim",
		filtergraph.P("start", "0"),
		filtergraph.P("end", filtergraph.Seconds(effective)),
	)
	add(filtergraph.KindSetPTS, "asetpts", filtergraph.Pos("PTS-STARTPTS"))

	offset := tr.StartOffsetSec()
	tp := TrackPlan{
		Path:                 tr.Path,
		Input:                tr.Input,
		Original:             tr.Original,
		EffectiveDurationSec: effective,
	}

	if offset > 0 {
		tp.DelayMs = filtergraph.Millis(offset)
		add(filtergraph.KindDelay, "adelay",
			filtergraph.P("delays", fmt.Sprint(tp.DelayMs)),
			filtergraph.P("all", "1"),
		)
	}

	if pad := filtergraph.Round3(totalSec - effective - offset); pad > 0 {
		tp.PadDurationSec = pad
		add(filtergraph.KindAPad, "apad", filtergraph.P("pad_dur", filtergraph.Seconds(pad)))
	}

	tp.Output = last
	return nodes, tp
}
