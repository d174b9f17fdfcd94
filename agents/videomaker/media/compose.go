package media

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// ComposeInput names everything a single segment clip is built from.
type ComposeInput struct {
	BackgroundVideo string
	OverlayImage    string
	NarrationAudio  string
	MusicFile       string  // empty disables music
	MusicVolume     float64 // 0 disables music
	OutPath         string
}

// Composer renders one fixed-duration clip per segment: looped background,
// centered caption card, narration as the primary audio track.
type Composer struct {
	runner *Runner
	video  config.VideoConfig
	logger zerolog.Logger
}

func NewComposer(runner *Runner, video config.VideoConfig, logger zerolog.Logger) *Composer {
	return &Composer{runner: runner, video: video, logger: logger}
}

// Compose builds the clip. The clip duration is exactly the narration
// audio's duration: background and card are looped and truncated by the
// output duration limit, never the reverse.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) (models.Clip, error) {
	for name, path := range map[string]string{
		"background video": in.BackgroundVideo,
		"overlay image":    in.OverlayImage,
		"narration audio":  in.NarrationAudio,
	} {
		if _, err := os.Stat(path); err != nil {
			return models.Clip{}, fmt.Errorf("%s %s is not readable: %w", name, path, err)
		}
	}

	narrationDur, err := c.runner.Duration(ctx, in.NarrationAudio)
	if err != nil {
		return models.Clip{}, fmt.Errorf("failed to measure narration duration: %w", err)
	}
	if narrationDur <= 0 {
		return models.Clip{}, fmt.Errorf("narration %s has non-positive duration %g", in.NarrationAudio, narrationDur)
	}

	useMusic := in.MusicFile != "" && in.MusicVolume > 0
	if useMusic {
		if _, err := os.Stat(in.MusicFile); err != nil {
			c.logger.Warn().Str("music", in.MusicFile).Err(err).Msg("Music file not readable, composing without music")
			useMusic = false
		}
	}

	args := buildComposeArgs(in, c.video, narrationDur, useMusic)
	if err := c.runner.Run(ctx, args); err != nil {
		os.Remove(in.OutPath)
		return models.Clip{}, fmt.Errorf("failed to compose clip %s: %w", in.OutPath, err)
	}

	return models.Clip{Path: in.OutPath, Duration: narrationDur}, nil
}

// buildComposeArgs constructs the full ffmpeg invocation for one clip.
// Output dimensions are forced even (chroma subsampling requires it). The
// card is scaled to at most 90% of output width and 80% of output height and
// centered over the padded background. With music, the mix uses
// duration=first so narration governs the mixed length.
func buildComposeArgs(in ComposeInput, video config.VideoConfig, narrationDur float64, useMusic bool) []string {
	w := video.Width - video.Width%2
	h := video.Height - video.Height%2

	args := []string{
		"-y",
		"-stream_loop", "-1", "-i", in.BackgroundVideo,
		"-loop", "1", "-i", in.OverlayImage,
		"-i", in.NarrationAudio,
	}
	if useMusic {
		args = append(args, "-stream_loop", "-1", "-i", in.MusicFile)
	}

	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[bg];"+
			"[1:v]scale=min(iw\\,%d):min(ih\\,%d):force_original_aspect_ratio=decrease[card];"+
			"[bg][card]overlay=(W-w)/2:(H-h)/2[vout]",
		w, h, w, h, w*9/10, h*8/10)

	audioMap := "2:a"
	if useMusic {
		filter += fmt.Sprintf(";[3:a]volume=%g[music];[2:a][music]amix=inputs=2:duration=first:dropout_transition=2[aout]",
			in.MusicVolume)
		audioMap = "[aout]"
	}

	args = append(args,
		"-filter_complex", filter,
		"-map", "[vout]",
		"-map", audioMap,
		"-t", fmt.Sprintf("%.3f", narrationDur),
		"-c:v", video.Codec,
		"-b:v", video.Bitrate,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		in.OutPath,
	)
	return args
}
