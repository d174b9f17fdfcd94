package media

import (
	"strings"
	"testing"

	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

func TestBuildComposeArgsDurationPolicy(t *testing.T) {
	in := ComposeInput{
		BackgroundVideo: "bg.mp4",
		OverlayImage:    "card.png",
		NarrationAudio:  "narration.mp3",
		OutPath:         "clip.mp4",
	}

	args := buildComposeArgs(in, testVideoConfig(), 12.345, false)
	joined := strings.Join(args, " ")

	// The narration duration caps the output; background and card are looped.
	if !strings.Contains(joined, "-t 12.345") {
		t.Errorf("Expected output capped at narration duration, args: %s", joined)
	}
	if !strings.Contains(joined, "-stream_loop -1 -i bg.mp4") {
		t.Errorf("Expected looped background, args: %s", joined)
	}
	if !strings.Contains(joined, "-loop 1 -i card.png") {
		t.Errorf("Expected looped overlay image, args: %s", joined)
	}
}

func TestBuildComposeArgsVideoFilter(t *testing.T) {
	in := ComposeInput{
		BackgroundVideo: "bg.mp4",
		OverlayImage:    "card.png",
		NarrationAudio:  "narration.mp3",
		OutPath:         "clip.mp4",
	}
	video := config.VideoConfig{Width: 1081, Height: 1921, Codec: "libx264", Bitrate: "4M"}

	args := buildComposeArgs(in, video, 5, false)
	filter := extractFilter(t, args)

	// Odd target dimensions must be forced even.
	if !strings.Contains(filter, "scale=1080:1920:force_original_aspect_ratio=decrease") {
		t.Errorf("Expected even-forced scale-to-fit, filter: %s", filter)
	}
	if !strings.Contains(filter, "pad=1080:1920:(ow-iw)/2:(oh-ih)/2") {
		t.Errorf("Expected centered letterbox pad, filter: %s", filter)
	}
	// Card capped at 90% width / 80% height of the even output size.
	if !strings.Contains(filter, "min(iw\\,972)") || !strings.Contains(filter, "min(ih\\,1536)") {
		t.Errorf("Expected card capped at 90%%/80%% of output, filter: %s", filter)
	}
	if !strings.Contains(filter, "overlay=(W-w)/2:(H-h)/2") {
		t.Errorf("Expected centered overlay, filter: %s", filter)
	}
}

func TestBuildComposeArgsAudioPolicy(t *testing.T) {
	in := ComposeInput{
		BackgroundVideo: "bg.mp4",
		OverlayImage:    "card.png",
		NarrationAudio:  "narration.mp3",
		MusicFile:       "music.mp3",
		MusicVolume:     0.15,
		OutPath:         "clip.mp4",
	}

	t.Run("without music narration passes through", func(t *testing.T) {
		args := buildComposeArgs(in, testVideoConfig(), 5, false)
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "-map 2:a") {
			t.Errorf("Expected plain narration mapping, args: %s", joined)
		}
		if strings.Contains(joined, "amix") {
			t.Errorf("Expected no mixing without music, args: %s", joined)
		}
	})

	t.Run("with music the mix ends with the narration", func(t *testing.T) {
		args := buildComposeArgs(in, testVideoConfig(), 5, true)
		filter := extractFilter(t, args)
		if !strings.Contains(filter, "volume=0.15") {
			t.Errorf("Expected volume-scaled music, filter: %s", filter)
		}
		if !strings.Contains(filter, "amix=inputs=2:duration=first") {
			t.Errorf("Expected duration=first mix semantics, filter: %s", filter)
		}
		if !strings.Contains(strings.Join(args, " "), "-map [aout]") {
			t.Errorf("Expected mixed audio mapping, args: %v", args)
		}
	})
}
