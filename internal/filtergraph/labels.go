package filtergraph

import "strconv"

// Reserved labels for the two designated outputs of every graph.
const (
	VideoOut = "outv"
	AudioOut = "outa"
)

// Labels allocates unique output labels for a single compilation.
// Counters are kept per prefix, so the same sequence of calls always yields
// the same labels. A Labels value must not be shared between compilations.
type Labels struct {
	counters map[string]int
	used     map[string]struct{}
}

// NewLabels returns an allocator with VideoOut and AudioOut reserved.
func NewLabels() *Labels {
	return &Labels{
		counters: make(map[string]int),
		used: map[string]struct{}{
			VideoOut: {},
			AudioOut: {},
		},
	}
}

// Next returns the next free label for prefix: prefix0, prefix1, ...
func (l *Labels) Next(prefix string) string {
	for {
		n := l.counters[prefix]
		l.counters[prefix] = n + 1
		label := prefix + strconv.Itoa(n)
		if _, taken := l.used[label]; taken {
			continue
		}
		l.used[label] = struct{}{}
		return label
	}
}

// Count returns how many labels have been issued for prefix.
func (l *Labels) Count(prefix string) int {
	return l.counters[prefix]
}
