package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// DurationUnit is the unit of numeric durations found in generic records.
type DurationUnit string

// Duration units accepted by RecordMapping.
const (
	UnitMilliseconds DurationUnit = "ms"
	UnitSeconds      DurationUnit = "s"
)

// RecordMapping names the record fields that carry scene and track values.
// Zero values fall back to DefaultRecordMapping.
type RecordMapping struct {
	ImageField     string       `yaml:"image_field" json:"image_field"`
	DurationField  string       `yaml:"duration_field" json:"duration_field"`
	AudioPathField string       `yaml:"audio_path_field" json:"audio_path_field"`
	OffsetField    string       `yaml:"offset_field" json:"offset_field"`
	Unit           DurationUnit `yaml:"unit" json:"unit"`
}

// DefaultRecordMapping returns the field names used when none are configured.
func DefaultRecordMapping() RecordMapping {
	return RecordMapping{
		ImageField:     "image",
		DurationField:  "duration",
		AudioPathField: "audio",
		OffsetField:    "start",
		Unit:           UnitMilliseconds,
	}
}

func (m RecordMapping) withDefaults() RecordMapping {
	d := DefaultRecordMapping()
	return RecordMapping{
		ImageField:     lo.Ternary(m.ImageField != "", m.ImageField, d.ImageField),
		DurationField:  lo.Ternary(m.DurationField != "", m.DurationField, d.DurationField),
		AudioPathField: lo.Ternary(m.AudioPathField != "", m.AudioPathField, d.AudioPathField),
		OffsetField:    lo.Ternary(m.OffsetField != "", m.OffsetField, d.OffsetField),
		Unit:           lo.Ternary(m.Unit != "", m.Unit, d.Unit),
	}
}

// RecordSource carries scenes and tracks as generic field-mapped records,
// the shape produced by upstream workflow steps.
type RecordSource struct {
	Scenes  []map[string]any `yaml:"scenes" json:"scenes"`
	Audio   []map[string]any `yaml:"audio" json:"audio"`
	Mapping RecordMapping    `yaml:"mapping" json:"mapping"`
}

// Normalize folds any record-shaped input into the canonical Scenes and
// Audio lists. Records are appended after explicitly listed entries. The
// returned request has Records cleared; req itself is not modified.
func Normalize(req Request) (Request, error) {
	out := req
	out.Records = nil
	out.Scenes = append([]SceneInput(nil), req.Scenes...)
	out.Audio = append([]AudioInput(nil), req.Audio...)

	if req.Records == nil {
		return out, nil
	}

	m := req.Records.Mapping.withDefaults()
	if m.Unit != UnitMilliseconds && m.Unit != UnitSeconds {
		return Request{}, &ValidationError{Field: "records.mapping.unit", Err: fmt.Errorf("%w: %q", ErrInvalidValue, m.Unit)}
	}

	for i, rec := range req.Records.Scenes {
		field := fmt.Sprintf("records.scenes[%d]", i)
		path, err := stringField(rec, m.ImageField)
		if err != nil {
			return Request{}, &ValidationError{Field: field + "." + m.ImageField, Err: err}
		}
		ms, err := durationField(rec, m.DurationField, m.Unit)
		if err != nil {
			return Request{}, &ValidationError{Field: field + "." + m.DurationField, Path: path, Err: err}
		}
		out.Scenes = append(out.Scenes, SceneInput{ImagePath: path, DurationMs: ms})
	}

	for i, rec := range req.Records.Audio {
		field := fmt.Sprintf("records.audio[%d]", i)
		path, err := stringField(rec, m.AudioPathField)
		if err != nil {
			return Request{}, &ValidationError{Field: field + "." + m.AudioPathField, Err: err}
		}
		var ms int64
		if _, ok := rec[m.OffsetField]; ok {
			ms, err = durationField(rec, m.OffsetField, m.Unit)
			if err != nil {
				return Request{}, &ValidationError{Field: field + "." + m.OffsetField, Path: path, Err: err}
			}
		}
		out.Audio = append(out.Audio, AudioInput{Path: path, StartOffsetMs: ms})
	}

	return out, nil
}

func stringField(rec map[string]any, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", ErrEmptyPath
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyPath
	}
	return s, nil
}

// durationField coerces a numeric or numeric-string value to milliseconds.
func durationField(rec map[string]any, key string, unit DurationUnit) (int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s is missing", ErrInvalidValue, key)
	}

	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, f)
	}
	if unit == UnitSeconds {
		f *= 1000
	}
	if f < 0 {
		return 0, ErrNegativeDuration
	}
	return int64(math.Round(f)), nil
}
