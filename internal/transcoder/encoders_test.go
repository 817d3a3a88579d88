package transcoder

import (
	"context"
	"errors"
	"testing"
)

const sampleEncoders = `Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 .F.... = Frame-level multithreading
 ------
 V....D gif                  CompuServe GIF (Graphics Interchange Format)
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D h264_videotoolbox    VideoToolbox H.264 Encoder (codec h264)
 V.S... mpeg4                MPEG-4 part 2
 A....D aac                  AAC (Advanced Audio Coding)
 S..... srt                  SubRip subtitle
`

func TestParseEncoders(t *testing.T) {
	got := ParseEncoders(sampleEncoders)

	for _, name := range []string{"gif", "libx264", "h264_videotoolbox", "mpeg4"} {
		if !got[name] {
			t.Errorf("Expected %s to be listed", name)
		}
	}
	for _, name := range []string{"aac", "srt", "Video", "="} {
		if got[name] {
			t.Errorf("Expected %s to be excluded", name)
		}
	}
}

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		name      string
		available map[string]bool
		preferred string
		want      string
		wantErr   bool
	}{
		{"preferred present", map[string]bool{"libx264": true, "mpeg4": true}, "libx264", "libx264", false},
		{"hardware fallback", map[string]bool{"h264_videotoolbox": true, "mpeg4": true}, "libx264", "h264_videotoolbox", false},
		{"last resort", map[string]bool{"mpeg4": true}, "libx264", "mpeg4", false},
		{"custom preferred", map[string]bool{"libx265": true, "mpeg4": true}, "libx265", "libx265", false},
		{"nothing", map[string]bool{"gif": true}, "libx264", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PickEncoder(tt.available, tt.preferred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PickEncoder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	runner := &stubRunner{result: Result{Stdout: []byte("ffmpeg version 7.1 Copyright (c) 2000-2024\nbuilt with clang\n")}}

	got, err := Version(context.Background(), runner)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if got != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Errorf("Version() = %q", got)
	}

	runner.err = errors.New("boom")
	if _, err := Version(context.Background(), runner); err == nil {
		t.Error("Version() should fail when ffmpeg fails")
	}
}
