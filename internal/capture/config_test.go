package capture

import (
	"image"
	"testing"
)

func TestConfigurationDimensions(t *testing.T) {
	tests := []struct {
		name       string
		quality    Quality
		size       image.Point
		wantWidth  int
		wantHeight int
	}{
		{name: "high keeps size", quality: QualityHigh, size: image.Pt(1920, 1080), wantWidth: 1920, wantHeight: 1080},
		{name: "medium", quality: QualityMedium, size: image.Pt(1920, 1080), wantWidth: 1440, wantHeight: 810},
		{name: "low", quality: QualityLow, size: image.Pt(1920, 1080), wantWidth: 960, wantHeight: 540},
		{name: "odd rounds down", quality: QualityHigh, size: image.Pt(801, 601), wantWidth: 800, wantHeight: 600},
		{name: "medium odd result", quality: QualityMedium, size: image.Pt(1000, 750), wantWidth: 750, wantHeight: 562},
		{name: "tiny clamps to two", quality: QualityLow, size: image.Pt(3, 1), wantWidth: 2, wantHeight: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			cfg.Quality = tt.quality
			w, h := cfg.Dimensions(tt.size)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("Dimensions(%v) = %dx%d, want %dx%d", tt.size, w, h, tt.wantWidth, tt.wantHeight)
			}
			if w%2 != 0 || h%2 != 0 {
				t.Errorf("Dimensions(%v) = %dx%d, want even values", tt.size, w, h)
			}
		})
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input   string
		want    Quality
		wantErr bool
	}{
		{input: "low", want: QualityLow},
		{input: "Medium", want: QualityMedium},
		{input: " high ", want: QualityHigh},
		{input: "", want: QualityHigh},
		{input: "ultra", want: QualityHigh, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuality(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuality(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseQuality(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()
	if cfg.FrameRate != 30 || cfg.Quality != QualityHigh || !cfg.ShowsCursor || cfg.CapturesShadows {
		t.Errorf("DefaultConfiguration() = %+v", cfg)
	}
	if cfg.QueueDepth != 5 {
		t.Errorf("QueueDepth = %d, want 5", cfg.QueueDepth)
	}
}

func TestZeroConfigurationRecordsFullSize(t *testing.T) {
	cfg := Configuration{}.withDefaults()
	if cfg.Quality != QualityHigh {
		t.Errorf("zero Quality = %v, want high", cfg.Quality)
	}
	w, h := cfg.Dimensions(image.Pt(1280, 720))
	if w != 1280 || h != 720 {
		t.Errorf("Dimensions() = %dx%d, want 1280x720", w, h)
	}
}
