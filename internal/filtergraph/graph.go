package filtergraph

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins statements in the rendered graph.
const Separator = ";"

// Static errors for graph validation.
var (
	// ErrDuplicateLabel is returned when two nodes produce the same label.
	ErrDuplicateLabel = errors.New("filtergraph: duplicate output label")
	// ErrUnknownInput is returned when a node consumes a label no earlier node produced.
	ErrUnknownInput = errors.New("filtergraph: unknown input label")
	// ErrMissingOutput is returned when a designated output is neither produced nor a stream specifier.
	ErrMissingOutput = errors.New("filtergraph: designated output not produced")
	// ErrEmptyGraph is returned when rendering a graph without statements.
	ErrEmptyGraph = errors.New("filtergraph: graph has no statements")
)

// Rendered is the serializer's product: the graph text plus the stream
// mapping directives for the designated outputs.
type Rendered struct {
	// Text is the value for -filter_complex.
	Text string
	// VideoMap is the -map argument for the video output ("[outv]" or "0:v:0").
	VideoMap string
	// AudioMap is the -map argument for the audio output.
	AudioMap string
	// Statements is the number of nodes rendered.
	Statements int
}

// Serialize renders the video nodes followed by the audio nodes and resolves
// the designated outputs to -map arguments. It does not mutate its inputs and
// always returns the same text for the same nodes.
func Serialize(video, audio []Node, videoOut, audioOut string) (*Rendered, error) {
	nodes := make([]Node, 0, len(video)+len(audio))
	nodes = append(nodes, video...)
	nodes = append(nodes, audio...)

	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	produced, err := validate(nodes)
	if err != nil {
		return nil, err
	}

	videoMap, err := mapTarget(videoOut, produced)
	if err != nil {
		return nil, fmt.Errorf("video output: %w", err)
	}
	audioMap, err := mapTarget(audioOut, produced)
	if err != nil {
		return nil, fmt.Errorf("audio output: %w", err)
	}

	statements := make([]string, len(nodes))
	for i, n := range nodes {
		statements[i] = n.String()
	}

	return &Rendered{
		Text:       strings.Join(statements, Separator),
		VideoMap:   videoMap,
		AudioMap:   audioMap,
		Statements: len(nodes),
	}, nil
}

// validate checks label uniqueness and that every input refers to a raw
// stream or an output produced earlier in the walk.
func validate(nodes []Node) (map[string]struct{}, error) {
	produced := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		for _, in := range n.Inputs {
			if IsStreamSpecifier(in) {
				continue
			}
			if _, ok := produced[in]; !ok {
				return nil, fmt.Errorf("%w: %q consumed by %s", ErrUnknownInput, in, n.Filter)
			}
		}
		if _, dup := produced[n.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, n.ID)
		}
		produced[n.ID] = struct{}{}
	}
	return produced, nil
}

func mapTarget(out string, produced map[string]struct{}) (string, error) {
	if _, ok := produced[out]; ok {
		return "[" + out + "]", nil
	}
	if IsStreamSpecifier(out) {
		return out, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMissingOutput, out)
}
