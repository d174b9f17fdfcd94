package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// ErrNoClips is returned when assembly is asked to join an empty sequence.
var ErrNoClips = errors.New("no clips to assemble")

// minTransition is the floor below which a cross-fade degenerates; the
// assembler falls back to a hard cut concat instead of emitting a broken
// filter graph.
const minTransition = 0.1

// Assembler concatenates an ordered clip sequence into the final video,
// optionally joining adjacent clips with synchronized video/audio
// cross-fades.
type Assembler struct {
	runner      *Runner
	video       config.VideoConfig
	transitions config.TransitionConfig
	logger      zerolog.Logger
}

func NewAssembler(runner *Runner, video config.VideoConfig, transitions config.TransitionConfig, logger zerolog.Logger) *Assembler {
	return &Assembler{runner: runner, video: video, transitions: transitions, logger: logger}
}

// Assemble joins clips in order into outPath. One clip is copied verbatim;
// two or more are concatenated with a re-encode, cross-fading when enabled
// and the effective transition duration has not collapsed.
func (a *Assembler) Assemble(ctx context.Context, clips []models.Clip, outPath string) error {
	switch len(clips) {
	case 0:
		return ErrNoClips
	case 1:
		return copyFile(clips[0].Path, outPath)
	}

	if a.transitions.Enabled {
		durations := make([]float64, len(clips))
		for i, c := range clips {
			durations[i] = c.Duration
		}
		td := EffectiveTransition(a.transitions.Duration, durations)
		if td >= minTransition {
			args := buildXfadeArgs(clips, td, a.transitions.Style, a.video, outPath)
			if err := a.runner.Run(ctx, args); err != nil {
				os.Remove(outPath)
				return fmt.Errorf("failed to assemble with transitions: %w", err)
			}
			return nil
		}
		a.logger.Warn().Float64("effective", td).
			Msg("Transition duration collapsed below the usable floor, falling back to hard cuts")
	}

	args := buildConcatArgs(clips, a.video, outPath)
	if err := a.runner.Run(ctx, args); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to concatenate clips: %w", err)
	}
	return nil
}

// EffectiveTransition bounds the configured cross-fade so no clip contributes
// more than ~49.9% of its own duration to surrounding transitions. This keeps
// adjacent transitions from overlapping each other inside a short clip.
func EffectiveTransition(target float64, durations []float64) float64 {
	if target <= 0 || len(durations) == 0 {
		return 0
	}
	shortest := durations[0]
	for _, d := range durations[1:] {
		if d < shortest {
			shortest = d
		}
	}
	bound := 0.499 * shortest
	if bound < target {
		return bound
	}
	return target
}

// XfadeOffsets computes the cumulative start time of each cross-fade. The
// fade into clip i+1 begins td seconds before the visual end of clip i on
// the already-shortened timeline:
//
//	off[0] = d[0] - td
//	off[i] = off[i-1] + d[i] - td
func XfadeOffsets(durations []float64, td float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, len(durations)-1)
	acc := 0.0
	for i := 0; i < len(durations)-1; i++ {
		acc += durations[i] - td
		offsets[i] = acc
	}
	return offsets
}

// buildXfadeArgs constructs a chained xfade/acrossfade graph: video and
// audio fade with the same duration and offsets, so the two tracks stay in
// sync through every transition.
func buildXfadeArgs(clips []models.Clip, td float64, style string, video config.VideoConfig, outPath string) []string {
	args := []string{"-y"}
	durations := make([]float64, len(clips))
	for i, c := range clips {
		args = append(args, "-i", c.Path)
		durations[i] = c.Duration
	}
	offsets := XfadeOffsets(durations, td)

	var filter strings.Builder
	prevV, prevA := "[0:v]", "[0:a]"
	for i := 1; i < len(clips); i++ {
		outV := fmt.Sprintf("[v%d]", i)
		outA := fmt.Sprintf("[a%d]", i)
		if i == len(clips)-1 {
			outV, outA = "[vout]", "[aout]"
		}
		fmt.Fprintf(&filter, "%s[%d:v]xfade=transition=%s:duration=%.3f:offset=%.3f%s;",
			prevV, i, style, td, offsets[i-1], outV)
		fmt.Fprintf(&filter, "%s[%d:a]acrossfade=d=%.3f%s;",
			prevA, i, td, outA)
		prevV, prevA = outV, outA
	}

	args = append(args,
		"-filter_complex", strings.TrimSuffix(filter.String(), ";"),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", video.Codec,
		"-b:v", video.Bitrate,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	)
	return args
}

// buildConcatArgs constructs a stream-level concat that re-encodes to a
// uniform codec and bitrate; per-clip encoder drift makes a copy concat
// unreliable.
func buildConcatArgs(clips []models.Clip, video config.VideoConfig, outPath string) []string {
	args := []string{"-y"}
	for _, c := range clips {
		args = append(args, "-i", c.Path)
	}

	var filter strings.Builder
	for i := range clips {
		fmt.Fprintf(&filter, "[%d:v][%d:a]", i, i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=1[vout][aout]", len(clips))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", video.Codec,
		"-b:v", video.Bitrate,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	)
	return args
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open clip %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy clip to %s: %w", dst, err)
	}
	return out.Close()
}
