// Package filtergraph models the processing graph handed to ffmpeg via
// -filter_complex and renders it into the exact textual form the engine parses.
// A Node is one statement: one filter with its input pads, ordered parameters
// and a single output label.
package filtergraph

import (
	"regexp"
	"strings"
)

// Kind identifies the role a node plays in the composition.
type Kind string

// Node kinds emitted by the video and audio planners.
const (
	KindScale      Kind = "scale"
	KindPad        Kind = "pad"
	KindSetSAR     Kind = "setsar"
	KindFPS        Kind = "fps"
	KindFormat     Kind = "format"
	KindZoom       Kind = "zoom"
	KindTrim       Kind = "trim"
	KindSetPTS     Kind = "setpts"
	KindConcat     Kind = "concat"
	KindSubtitle   Kind = "subtitle"
	KindIdentity   Kind = "identity"
	KindResample   Kind = "resample"
	KindAFormat    Kind = "aformat"
	KindPan        Kind = "pan"
	KindDelay      Kind = "delay"
	KindAPad       Kind = "apad"
	KindMix        Kind = "mix"
	KindVolume     Kind = "volume"
	KindNullSource Kind = "nullsource"
)

// Param is a single filter option. An empty Key renders the value positionally.
type Param struct {
	Key   string
	Value string
}

// P is shorthand for a named parameter.
func P(key, value string) Param {
	return Param{Key: key, Value: value}
}

// Pos is shorthand for a positional parameter.
func Pos(value string) Param {
	return Param{Value: value}
}

// Node is one statement of the filter graph.
type Node struct {
	// ID is the label of the node's output pad.
	ID string
	// Kind is the semantic role of the node.
	Kind Kind
	// Filter is the ffmpeg filter name, e.g. "scale" or "amix".
	Filter string
	// Inputs are the pads consumed, in order. Each is either a stream
	// specifier such as "0:v" or the ID of an earlier node.
	Inputs []string
	// Params are the filter options in render order.
	Params []Param
}

// String renders the node as a single statement:
// [in0][in1]filter=k=v:k2=v2[out]
func (n Node) String() string {
	var b strings.Builder
	for _, in := range n.Inputs {
		b.WriteByte('[')
		b.WriteString(in)
		b.WriteByte(']')
	}
	b.WriteString(n.Filter)
	for i, p := range n.Params {
		if i == 0 {
			b.WriteByte('=')
		} else {
			b.WriteByte(':')
		}
		if p.Key != "" {
			b.WriteString(p.Key)
			b.WriteByte('=')
		}
		b.WriteString(p.Value)
	}
	b.WriteByte('[')
	b.WriteString(n.ID)
	b.WriteByte(']')
	return b.String()
}

var streamSpecifier = regexp.MustCompile(`^\d+:[va](:\d+)?$`)

// IsStreamSpecifier reports whether ref addresses a raw input stream
// ("0:v", "3:a:0") rather than a node output label.
func IsStreamSpecifier(ref string) bool {
	return streamSpecifier.MatchString(ref)
}
