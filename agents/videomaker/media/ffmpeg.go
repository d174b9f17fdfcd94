// Package media drives ffmpeg to compose per-segment clips and assemble the
// final video.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes ffmpeg and ffprobe as external processes. Invocations are
// blocking; the pipeline awaits each before starting the next step.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
	logger      zerolog.Logger
}

func NewRunner(ffmpegPath, ffprobePath string, logger zerolog.Logger) *Runner {
	return &Runner{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// Run invokes ffmpeg with the given arguments.
func (r *Runner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug().Strs("args", args).Msg("Running ffmpeg")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w (stderr: %s)", err, tail(stderr.String(), 1000))
	}
	return nil
}

// Duration returns the container duration of a media file in seconds.
func (r *Runner) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w (stderr: %s)", path, err, tail(stderr.String(), 500))
	}

	raw := strings.TrimSpace(stdout.String())
	dur, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q for %s: %w", raw, path, err)
	}
	return dur, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
