package export

import (
	"fmt"
	"strings"
)

// Dithering is an ffmpeg paletteuse dither mode.
type Dithering string

const (
	DitherNone           Dithering = "none"
	DitherBayer          Dithering = "bayer"
	DitherSierra2        Dithering = "sierra2"
	DitherSierra2_4A     Dithering = "sierra2_4a"
	DitherFloydSteinberg Dithering = "floyd_steinberg"
)

var ditherings = []Dithering{DitherNone, DitherBayer, DitherSierra2, DitherSierra2_4A, DitherFloydSteinberg}

// DisplayName is a human-readable label for d.
func (d Dithering) DisplayName() string {
	switch d {
	case DitherNone:
		return "None (sharp edges)"
	case DitherBayer:
		return "Bayer (ordered)"
	case DitherSierra2:
		return "Sierra-2"
	case DitherSierra2_4A:
		return "Sierra-2-4A (fast)"
	case DitherFloydSteinberg:
		return "Floyd-Steinberg (smooth)"
	default:
		return string(d)
	}
}

// ParseDithering accepts the ffmpeg names plus "floydsteinberg" and
// "floyd-steinberg".
func ParseDithering(s string) (Dithering, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "floydsteinberg", "floyd-steinberg":
		return DitherFloydSteinberg, nil
	case "sierra2-4a":
		return DitherSierra2_4A, nil
	}
	for _, d := range ditherings {
		if string(d) == v {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dithering %q", s)
}

// Preset is a named bundle of export parameters.
type Preset string

const (
	PresetSmall    Preset = "small"
	PresetMedium   Preset = "medium"
	PresetLarge    Preset = "large"
	PresetOriginal Preset = "original"
)

// Presets lists the presets from smallest to largest output.
func Presets() []Preset {
	return []Preset{PresetSmall, PresetMedium, PresetLarge, PresetOriginal}
}

// DisplayName is a human-readable label for p.
func (p Preset) DisplayName() string {
	switch p {
	case PresetSmall:
		return "Small (Fast upload)"
	case PresetMedium:
		return "Medium (Balanced)"
	case PresetLarge:
		return "Large (High quality)"
	case PresetOriginal:
		return "Original (Maximum quality)"
	default:
		return string(p)
	}
}

// ParsePreset converts a preset name. The empty string selects medium.
func ParsePreset(s string) (Preset, error) {
	v := Preset(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return PresetMedium, nil
	}
	if _, ok := presetValues[v]; !ok {
		return "", fmt.Errorf("unknown preset %q (want small, medium, large or original)", s)
	}
	return v, nil
}

// Resolved holds concrete export parameters.
type Resolved struct {
	FrameRate int       `json:"fps"`
	MaxWidth  int       `json:"maxWidth"`
	MaxColors int       `json:"maxColors"`
	Dithering Dithering `json:"dithering"`
	// LoopCount is 0 for infinite, -1 to play once, n to repeat n times.
	LoopCount int `json:"loop"`
}

// originalMaxWidth effectively disables downscaling.
const originalMaxWidth = 9999

var presetValues = map[Preset]Resolved{
	PresetSmall:    {FrameRate: 10, MaxWidth: 480, MaxColors: 128, Dithering: DitherBayer},
	PresetMedium:   {FrameRate: 15, MaxWidth: 640, MaxColors: 256, Dithering: DitherSierra2},
	PresetLarge:    {FrameRate: 20, MaxWidth: 1280, MaxColors: 256, Dithering: DitherFloydSteinberg},
	PresetOriginal: {FrameRate: 30, MaxWidth: originalMaxWidth, MaxColors: 256, Dithering: DitherFloydSteinberg},
}

// Overrides replaces individual preset values. Nil fields keep the preset.
type Overrides struct {
	FrameRate *int       `json:"fps,omitempty"`
	MaxWidth  *int       `json:"maxWidth,omitempty"`
	MaxColors *int       `json:"maxColors,omitempty"`
	Dithering *Dithering `json:"dithering,omitempty"`
}

// Settings selects how a recording is exported.
type Settings struct {
	Preset    Preset    `json:"preset"`
	Overrides Overrides `json:"overrides"`
	LoopCount int       `json:"loop"`
}

// DefaultSettings is the medium preset, looping forever.
func DefaultSettings() Settings {
	return Settings{Preset: PresetMedium}
}

// Resolve applies overrides on top of the preset. Unknown presets resolve
// as medium.
func (s Settings) Resolve() Resolved {
	r, ok := presetValues[s.Preset]
	if !ok {
		r = presetValues[PresetMedium]
	}
	if s.Overrides.FrameRate != nil {
		r.FrameRate = *s.Overrides.FrameRate
	}
	if s.Overrides.MaxWidth != nil {
		r.MaxWidth = *s.Overrides.MaxWidth
	}
	if s.Overrides.MaxColors != nil {
		r.MaxColors = *s.Overrides.MaxColors
	}
	if s.Overrides.Dithering != nil {
		r.Dithering = *s.Overrides.Dithering
	}
	r.LoopCount = s.LoopCount
	return r
}

// Validate checks the preset and the ranges ffmpeg accepts.
func (s Settings) Validate() error {
	if _, ok := presetValues[s.Preset]; !ok {
		return fmt.Errorf("unknown preset %q", s.Preset)
	}
	r := s.Resolve()
	switch {
	case r.FrameRate < 1 || r.FrameRate > 50:
		return fmt.Errorf("fps must be between 1 and 50, got %d", r.FrameRate)
	case r.MaxWidth < 2:
		return fmt.Errorf("max width must be at least 2, got %d", r.MaxWidth)
	case r.MaxColors < 4 || r.MaxColors > 256:
		return fmt.Errorf("max colors must be between 4 and 256, got %d", r.MaxColors)
	case r.LoopCount < -1:
		return fmt.Errorf("loop count must be -1 or greater, got %d", r.LoopCount)
	}
	if _, err := ParseDithering(string(r.Dithering)); err != nil {
		return err
	}
	return nil
}
