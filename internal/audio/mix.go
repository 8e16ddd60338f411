package audio

import (
	"strconv"

	"github.com/maauso/mediacomposer/internal/filtergraph"
)

// MixStrategy turns the surviving track outputs into the final audio output.
type MixStrategy interface {
	// Name identifies the strategy in logs and plans.
	Name() string
	// Nodes returns the statements that consume inputs and produce out.
	Nodes(labels *filtergraph.Labels, inputs []string, out string) []filtergraph.Node
}

// Empty synthesizes silence for the whole timeline when no track survives.
type Empty struct {
	SampleRate  int
	DurationSec float64
}

// Name implements MixStrategy.
func (Empty) Name() string { return "empty" }

// Nodes implements MixStrategy.
func (e Empty) Nodes(_ *filtergraph.Labels, _ []string, out string) []filtergraph.Node {
	return []filtergraph.Node{{
		ID:     out,
		Kind:   filtergraph.KindNullSource,
		Filter: "anullsrc",
		Params: []filtergraph.Param{
			filtergraph.P("channel_layout", "stereo"),
			filtergraph.P("sample_rate", filtergraph.Itoa(e.SampleRate)),
			filtergraph.P("duration", filtergraph.Seconds(e.DurationSec)),
		},
	}}
}

// Passthrough routes a single track to the output unchanged.
type Passthrough struct{}

// Name implements MixStrategy.
func (Passthrough) Name() string { return "passthrough" }

// Nodes implements MixStrategy.
func (Passthrough) Nodes(_ *filtergraph.Labels, inputs []string, out string) []filtergraph.Node {
	return []filtergraph.Node{{
		ID:     out,
		Kind:   filtergraph.KindIdentity,
		Filter: "anull",
		Inputs: inputs[:1],
	}}
}

// Average mixes every input with amix and compensates the resulting level.
type Average struct {
	GainMode GainMode
	GainDB   float64
}

// Name implements MixStrategy.
func (Average) Name() string { return "average" }

// Nodes implements MixStrategy.
func (a Average) Nodes(labels *filtergraph.Labels, inputs []string, out string) []filtergraph.Node {
	n := len(inputs)
	mixed := labels.Next("mix")
	return []filtergraph.Node{
		{
			ID:     mixed,
			Kind:   filtergraph.KindMix,
			Filter: "amix",
			Inputs: append([]string(nil), inputs...),
			Params: []filtergraph.Param{
				filtergraph.P("inputs", filtergraph.Itoa(n)),
				filtergraph.P("duration", "longest"),
				filtergraph.P("dropout_transition", "0"),
			},
		},
		{
			ID:     out,
			Kind:   filtergraph.KindVolume,
			Filter: "volume",
			Inputs: []string{mixed},
			Params: []filtergraph.Param{filtergraph.Pos(a.gain(n))},
		},
	}
}

func (a Average) gain(n int) string {
	if a.GainMode == GainLinear {
		return filtergraph.Itoa(n)
	}
	return strconv.FormatFloat(a.GainDB, 'f', -1, 64) + "dB"
}

// StrategyFor selects the mix strategy for n surviving tracks.
func StrategyFor(n int, totalSec float64, opts Options) MixStrategy {
	switch {
	case n == 0:
		return Empty{SampleRate: opts.SampleRate, DurationSec: totalSec}
	case n == 1:
		return Passthrough{}
	default:
		return Average{GainMode: opts.GainMode, GainDB: opts.GainDB}
	}
}
