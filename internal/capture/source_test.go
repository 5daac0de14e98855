package capture

import (
	"reflect"
	"testing"
)

func TestSourceInputArgs(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		want   []string
	}{
		{
			name:   "fullscreen",
			source: NewFullscreen(":0", 1920, 1080, 60),
			want:   []string{"-f", "x11grab", "-framerate", "60", "-video_size", "1920x1080", "-i", ":0.0"},
		},
		{
			name:   "window",
			source: NewWindow(":1", "0x3a00007", 30),
			want:   []string{"-f", "x11grab", "-framerate", "30", "-window_id", "0x3a00007", "-i", ":1.0"},
		},
		{
			name:   "region",
			source: NewRegion(":0", 100, 200, 1280, 720, 60),
			want:   []string{"-f", "x11grab", "-framerate", "60", "-video_size", "1280x720", "-i", ":0.0+100,200"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.source.InputArgs()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InputArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}
