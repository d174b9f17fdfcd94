package media

import (
	"math"
	"strings"
	"testing"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

func TestEffectiveTransition(t *testing.T) {
	tests := []struct {
		name      string
		target    float64
		durations []float64
		expected  float64
	}{
		{
			name:      "target fits comfortably",
			target:    0.5,
			durations: []float64{10, 8, 12},
			expected:  0.5,
		},
		{
			name:      "bounded by shortest clip",
			target:    3.0,
			durations: []float64{10, 4, 12},
			expected:  0.499 * 4,
		},
		{
			name:      "very short clip collapses the transition",
			target:    0.5,
			durations: []float64{10, 0.1, 12},
			expected:  0.499 * 0.1,
		},
		{
			name:      "zero target disables transitions",
			target:    0,
			durations: []float64{10, 8},
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveTransition(tt.target, tt.durations)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %g, got %g", tt.expected, got)
			}
		})
	}
}

func TestEffectiveTransitionNeverExceedsHalfOfShortestClip(t *testing.T) {
	durations := []float64{3.2, 1.4, 7.9, 2.2}
	td := EffectiveTransition(5, durations)
	for _, d := range durations {
		if td > 0.499*d+1e-9 {
			t.Errorf("Effective transition %g exceeds 49.9%% of clip duration %g", td, d)
		}
	}
}

func TestXfadeOffsetsAreCumulativeAndMonotonic(t *testing.T) {
	durations := []float64{10, 6, 8, 4}
	td := 0.5

	offsets := XfadeOffsets(durations, td)

	if len(offsets) != 3 {
		t.Fatalf("Expected 3 offsets for 4 clips, got %d", len(offsets))
	}

	// off[0] = d0 - td; each next adds d[i] - td.
	expected := []float64{9.5, 15.0, 22.5}
	for i := range expected {
		if math.Abs(offsets[i]-expected[i]) > 1e-9 {
			t.Errorf("Offset %d: expected %g, got %g", i, expected[i], offsets[i])
		}
	}

	prev := 0.0
	for i, off := range offsets {
		if off <= prev {
			t.Errorf("Offset %d (%g) is not strictly increasing after %g", i, off, prev)
		}
		prev = off
	}
}

func TestXfadeOutputDurationLaw(t *testing.T) {
	durations := []float64{10, 6, 8}
	td := EffectiveTransition(0.5, durations)
	offsets := XfadeOffsets(durations, td)

	// With transitions, the timeline is sum(durations) - (n-1)*td; the final
	// transition starts td before that end.
	total := 0.0
	for _, d := range durations {
		total += d
	}
	expectedEnd := total - float64(len(durations)-1)*td
	lastOffset := offsets[len(offsets)-1]
	if math.Abs(lastOffset+durations[len(durations)-1]-expectedEnd) > 1e-9 {
		t.Errorf("Final transition offset %g inconsistent with expected output end %g", lastOffset, expectedEnd)
	}
}

func testVideoConfig() config.VideoConfig {
	return config.VideoConfig{Width: 1080, Height: 1920, Codec: "libx264", Bitrate: "4M"}
}

func TestBuildXfadeArgsChainsVideoAndAudio(t *testing.T) {
	clips := []models.Clip{
		{Path: "a.mp4", Duration: 10},
		{Path: "b.mp4", Duration: 6},
		{Path: "c.mp4", Duration: 8},
	}

	args := buildXfadeArgs(clips, 0.5, "fade", testVideoConfig(), "out.mp4")
	joined := strings.Join(args, " ")

	filter := extractFilter(t, args)
	if strings.Count(filter, "xfade=") != 2 {
		t.Errorf("Expected 2 xfade stages for 3 clips, filter: %s", filter)
	}
	if strings.Count(filter, "acrossfade=") != 2 {
		t.Errorf("Expected 2 acrossfade stages for 3 clips, filter: %s", filter)
	}
	if !strings.Contains(filter, "offset=9.500") {
		t.Errorf("Expected first offset 9.500 in filter: %s", filter)
	}
	if !strings.Contains(filter, "offset=15.000") {
		t.Errorf("Expected second offset 15.000 in filter: %s", filter)
	}
	if !strings.Contains(joined, "-map [vout] -map [aout]") {
		t.Errorf("Expected mapped vout/aout, args: %s", joined)
	}
}

func TestBuildConcatArgsReencodesUniformly(t *testing.T) {
	clips := []models.Clip{
		{Path: "a.mp4", Duration: 10},
		{Path: "b.mp4", Duration: 6},
	}

	args := buildConcatArgs(clips, testVideoConfig(), "out.mp4")
	joined := strings.Join(args, " ")

	filter := extractFilter(t, args)
	if !strings.Contains(filter, "concat=n=2:v=1:a=1") {
		t.Errorf("Expected concat of 2 inputs, filter: %s", filter)
	}
	if !strings.Contains(joined, "-c:v libx264") || !strings.Contains(joined, "-b:v 4M") {
		t.Errorf("Expected uniform re-encode settings, args: %s", joined)
	}
}

func extractFilter(t *testing.T, args []string) string {
	t.Helper()
	for i, a := range args {
		if a == "-filter_complex" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatal("No -filter_complex in args")
	return ""
}
