package process

import "testing"

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Progress
	}{
		{
			name: "padded layout",
			line: "frame=  123 fps= 60.0 q=20.0 size=    1234kB time=00:00:02.05 bitrate=4940.2kbits/s speed=1.00x",
			want: Progress{Frame: 123, FPS: 60.0, Time: "00:00:02.05", Speed: "1.00x", SizeKB: 1234},
		},
		{
			name: "packed layout",
			line: "frame=500 fps=60 q=20.0 size=5000kB time=00:00:08.33 bitrate=4915.2kbits/s speed=1.02x",
			want: Progress{Frame: 500, FPS: 60, Time: "00:00:08.33", Speed: "1.02x", SizeKB: 5000},
		},
		{
			name: "kibibyte suffix",
			line: "frame=10 fps=5.0 q=-1.0 size=256KiB time=00:00:00.40 speed=2x",
			want: Progress{Frame: 10, FPS: 5.0, Time: "00:00:00.40", Speed: "2x", SizeKB: 256},
		},
		{
			name: "size not available",
			line: "frame=1 fps=0.0 q=0.0 size=N/A time=00:00:00.03 bitrate=N/A speed=0.6x",
			want: Progress{Frame: 1, FPS: 0, Time: "00:00:00.03", Speed: "0.6x", SizeKB: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgress(tt.line)
			if !ok {
				t.Fatalf("ParseProgress(%q) not recognized as progress", tt.line)
			}
			if got != tt.want {
				t.Errorf("ParseProgress(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseProgressRejectsNonStatusLines(t *testing.T) {
	lines := []string{
		"",
		"Output #0, matroska, to 'out.mkv':",
		"Press [q] to stop, [?] for help",
		"[libx264 @ 0x5591] frame I:1   Avg QP:20.00",
		"frame=12 fps=30 q=20.0",
		"time=00:00:01.00 bitrate=100kbits/s",
	}

	for _, line := range lines {
		if _, ok := ParseProgress(line); ok {
			t.Errorf("ParseProgress(%q) = true, want false", line)
		}
	}
}
