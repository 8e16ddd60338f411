package filtergraph

import "strings"

// EscapeSubtitlePath prepares a subtitle file path for embedding in the
// subtitles filter. Replacements run in a fixed order: backslash becomes four
// backslashes, then colon becomes \:, then single quote becomes \'.
// Running the backslash step first keeps the later escapes from being doubled.
func EscapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\\\`)
	path = strings.ReplaceAll(path, `:`, `\:`)
	path = strings.ReplaceAll(path, `'`, `\'`)
	return path
}
