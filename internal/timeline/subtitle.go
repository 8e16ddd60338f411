package timeline

import (
	"path/filepath"
	"strings"
)

// SubtitleFormat is a subtitle container the subtitles filter can burn in.
type SubtitleFormat string

// Supported subtitle formats.
const (
	SubtitleSRT SubtitleFormat = "srt"
	SubtitleASS SubtitleFormat = "ass"
	SubtitleSSA SubtitleFormat = "ssa"
	SubtitleVTT SubtitleFormat = "vtt"
)

var supportedSubtitles = []SubtitleFormat{SubtitleSRT, SubtitleASS, SubtitleSSA, SubtitleVTT}

// Subtitle is the optional subtitle file burned into the video.
type Subtitle struct {
	Path   string
	Format SubtitleFormat
}

// ParseSubtitle derives the format from the file extension, case-insensitively.
func ParseSubtitle(path string) (*Subtitle, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range supportedSubtitles {
		if ext == "."+string(f) {
			return &Subtitle{Path: path, Format: f}, nil
		}
	}

	allowed := make([]string, len(supportedSubtitles))
	for i, f := range supportedSubtitles {
		allowed[i] = "." + string(f)
	}
	return nil, &UnsupportedSubtitleFormatError{Path: path, Ext: ext, Allowed: allowed}
}
