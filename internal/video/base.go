package video

import (
	"github.com/maauso/mediacomposer/internal/filtergraph"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// PlanBaseVideo plans a composition onto an existing video. Without a
// subtitle the base stream is mapped directly and may be stream-copied;
// burning a subtitle forces a re-encode.
func PlanBaseVideo(base *timeline.BaseVideo, sub *timeline.Subtitle, labels *filtergraph.Labels, opts Options) (*Plan, error) {
	if base == nil {
		return nil, ErrNoBaseVideo
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if sub == nil {
		return &Plan{Output: filtergraph.Itoa(base.Input) + ":v:0"}, nil
	}

	return &Plan{
		Nodes:          []filtergraph.Node{subtitleNode(filtergraph.Itoa(base.Input)+":v", sub, filtergraph.VideoOut)},
		Output:         filtergraph.VideoOut,
		Reencode:       true,
		SubtitleBurned: true,
	}, nil
}
