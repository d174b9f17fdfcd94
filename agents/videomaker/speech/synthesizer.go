// Package speech turns segment text into narration audio files.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// Synthesizer produces a playable audio file for the given text. A failure
// is always reported as an error; engines never succeed with an empty file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// New selects the configured engine. Engine choice is a configuration
// concern; callers only see the Synthesizer contract.
func New(cfg config.SpeechConfig, logger zerolog.Logger) (Synthesizer, error) {
	switch cfg.Engine {
	case "command":
		return &CommandEngine{cfg: cfg, logger: logger}, nil
	case "azure":
		return &AzureEngine{cfg: cfg, logger: logger, client: &http.Client{Timeout: 60 * time.Second}}, nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q", cfg.Engine)
	}
}

// verifyOutput rejects the silently-empty-file failure mode: an engine that
// exits cleanly but produced nothing is still a synthesis failure.
func verifyOutput(outPath string) error {
	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("synthesis produced no output file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(outPath)
		return fmt.Errorf("synthesis produced an empty file %s", outPath)
	}
	return nil
}

// CommandEngine shells out to a local TTS binary. The configured args may use
// the {text} and {out} placeholders; if {out} is absent the output path is
// appended as the final argument.
type CommandEngine struct {
	cfg    config.SpeechConfig
	logger zerolog.Logger
}

func (e *CommandEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("cannot synthesize empty text")
	}

	args := make([]string, 0, len(e.cfg.CommandArgs)+1)
	sawOut := false
	for _, a := range e.cfg.CommandArgs {
		a = strings.ReplaceAll(a, "{text}", text)
		if strings.Contains(a, "{out}") {
			a = strings.ReplaceAll(a, "{out}", outPath)
			sawOut = true
		}
		args = append(args, a)
	}
	if !sawOut {
		args = append(args, outPath)
	}

	cmd := exec.CommandContext(ctx, e.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug().Str("command", e.cfg.Command).Str("out", outPath).Msg("Running TTS command")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tts command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return verifyOutput(outPath)
}

// AzureEngine calls the Azure Cognitive Services TTS REST endpoint.
type AzureEngine struct {
	cfg    config.SpeechConfig
	logger zerolog.Logger
	client *http.Client
}

func (e *AzureEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("cannot synthesize empty text")
	}

	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", e.cfg.AzureRegion)
	ssml := fmt.Sprintf(`<speak version='1.0' xml:lang='en-US'>
    <voice xml:lang='en-US' name='%s'>%s</voice>
</speak>`, e.cfg.AzureVoice, escapeSSML(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(ssml))
	if err != nil {
		return fmt.Errorf("failed to create TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-16khz-128kbitrate-mono-mp3")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.cfg.AzureKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("TTS request failed with status %d: %s", resp.StatusCode, string(body))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create audio file %s: %w", outPath, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(outPath)
		return fmt.Errorf("failed to write audio file %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audio file %s: %w", outPath, err)
	}
	return verifyOutput(outPath)
}

func escapeSSML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&apos;", `"`, "&quot;")
	return r.Replace(s)
}
