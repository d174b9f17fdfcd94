// Package videomaker turns selected Reddit posts into narrated videos and
// optionally uploads them.
package videomaker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker/cards"
	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker/media"
	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker/reddit"
	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker/speech"
	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker/text"
	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/ai"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
	"github.com/deanable/RedditVideoMaker-sub000/shared/email"
	"github.com/deanable/RedditVideoMaker-sub000/shared/monitoring"
	"github.com/deanable/RedditVideoMaker-sub000/shared/storage"
	"github.com/deanable/RedditVideoMaker-sub000/shared/upload"
)

// The pipeline stages the orchestrator drives. Concrete implementations live
// in their own packages; the narrow interfaces keep the run loop testable.
type cardRenderer interface {
	Measurer() (text.Measurer, error)
	TextRegion() (w, h float64)
	Render(card cards.Card, outPath string) error
}

type clipComposer interface {
	Compose(ctx context.Context, in media.ComposeInput) (models.Clip, error)
}

type sequenceAssembler interface {
	Assemble(ctx context.Context, clips []models.Clip, outPath string) error
}

type durationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type videoUploader interface {
	Upload(ctx context.Context, videoPath string, meta models.VideoMetadata) (string, error)
}

type metadataWriter interface {
	WriteMetadata(ctx context.Context, post models.Post) (models.VideoMetadata, error)
}

type reportSender interface {
	SendRunReport(subject, summary string, lines []string) error
}

// Agent runs one batch: select posts, render a clip per segment, assemble a
// final video per post, then record and optionally upload it.
type Agent struct {
	config *config.Config
	logger zerolog.Logger
	runID  string

	selector  *reddit.Selector
	synth     speech.Synthesizer
	renderer  cardRenderer
	composer  clipComposer
	assembler sequenceAssembler
	prober    durationProber
	ledger    *storage.UploadLedger
	uploader  videoUploader
	metadata  metadataWriter
	emailer   reportSender
	monitor   *monitoring.RunReport
}

func NewAgent(cfg *config.Config, logger zerolog.Logger) *Agent {
	runID := uuid.NewString()[:8]
	return &Agent{
		config:  cfg,
		logger:  logger.With().Str("run_id", runID).Logger(),
		runID:   runID,
		monitor: monitoring.NewRunReport(),
	}
}

func (a *Agent) Name() string {
	return "Reddit Video Maker"
}

// Initialize wires the pipeline components. Optional stages (upload, AI
// metadata, email) are only constructed when enabled.
func (a *Agent) Initialize(ctx context.Context) error {
	a.logger.Info().Msgf("Initializing %s", a.Name())

	if a.selector == nil {
		client, err := reddit.NewClient(a.config.Reddit, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create reddit client: %w", err)
		}
		a.selector = reddit.NewSelector(client, a.config.Reddit, a.config.Filters, a.config.Comments, a.logger)
	}

	if a.synth == nil {
		synth, err := speech.New(a.config.Speech, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create speech synthesizer: %w", err)
		}
		a.synth = synth
	}

	if a.renderer == nil {
		a.renderer = cards.NewRenderer(a.config.Cards)
	}

	if a.composer == nil || a.assembler == nil || a.prober == nil {
		runner := media.NewRunner(a.config.Output.FFmpegPath, a.config.Output.FFprobePath, a.logger)
		a.composer = media.NewComposer(runner, a.config.Video, a.logger)
		a.assembler = media.NewAssembler(runner, a.config.Video, a.config.Transitions, a.logger)
		a.prober = runner
	}

	if a.ledger == nil {
		ledger, err := storage.NewUploadLedger(a.config.Ledger.File, a.config.Ledger.Enabled, a.logger)
		if err != nil {
			return fmt.Errorf("failed to open upload ledger: %w", err)
		}
		a.ledger = ledger
		a.logger.Info().Int("entries", ledger.Count()).Msg("Upload ledger loaded")
	}

	if a.config.Upload.Enabled && a.uploader == nil {
		uploader, err := upload.NewUploader(ctx, a.config.Upload, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create uploader: %w", err)
		}
		a.uploader = uploader
	}

	if a.config.AI.Enabled && a.metadata == nil {
		writer, err := ai.NewMetadataWriter(ctx, a.config.AI, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create metadata writer: %w", err)
		}
		a.metadata = writer
	}

	if a.config.Email.Enabled && a.emailer == nil {
		a.emailer = email.NewSender(a.config.Email)
	}

	return nil
}

// RunOnce processes one batch. A post failure is recorded and the batch
// continues; only selection failures and context cancellation abort the run.
func (a *Agent) RunOnce(ctx context.Context) error {
	// A fetch failure yields an empty batch, not a crash; retries already
	// happened at the client boundary.
	posts, err := a.selector.SelectPosts(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Post selection failed, nothing to process")
		posts = nil
	}
	a.logger.Info().Int("posts", len(posts)).Msg("Batch selected")

	for i, post := range posts {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if a.ledger.Seen(post.ID) {
			a.logger.Info().Str("post_id", post.ID).Msg("Skipping already uploaded post")
			a.monitor.RecordPost(post.ID, monitoring.OutcomeSkipped, "already uploaded")
			continue
		}

		a.logger.Info().Str("post_id", post.ID).Str("title", post.Title).
			Msgf("Processing post %d/%d", i+1, len(posts))

		finalPath, err := a.processPost(ctx, post)
		if err != nil {
			a.logger.Error().Err(err).Str("post_id", post.ID).Msg("Post failed")
			a.monitor.RecordPost(post.ID, monitoring.OutcomeFailed, err.Error())
			continue
		}
		a.monitor.RecordPost(post.ID, monitoring.OutcomeProcessed, filepath.Base(finalPath))
	}

	summary := a.monitor.GetSummary()
	a.logger.Info().Msgf("Batch complete: %s", summary)

	if a.emailer != nil {
		subject := fmt.Sprintf("Video batch report - %s", time.Now().Format("Jan 2, 2006"))
		if err := a.emailer.SendRunReport(subject, summary, a.monitor.Lines()); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to send batch report email")
		}
	}

	return nil
}

func (a *Agent) processPost(ctx context.Context, post models.Post) (string, error) {
	comments, err := a.selector.SelectComments(ctx, post)
	if err != nil {
		a.logger.Warn().Err(err).Str("post_id", post.ID).Msg("Comment selection failed, continuing without comments")
		comments = nil
	}

	segments, err := a.buildSegments(post, comments)
	if err != nil {
		return "", err
	}

	dirs, err := a.ensureDirs()
	if err != nil {
		return "", err
	}

	var clips []models.Clip
	for _, seg := range segments {
		clip, err := a.renderSegment(ctx, seg, dirs)
		if err != nil {
			a.logger.Warn().Err(err).Str("segment", seg.ID()).Msg("Segment failed, continuing with the rest")
			a.monitor.RecordSegmentFailed()
			continue
		}
		a.monitor.RecordSegmentRendered()
		clips = append(clips, clip)
	}

	if len(clips) == 0 {
		return "", fmt.Errorf("no segments rendered for post %s", post.ID)
	}

	clips = a.wrapWithBookends(ctx, clips)

	finalPath := filepath.Join(dirs.final, post.ID+".mp4")
	if err := a.assembler.Assemble(ctx, clips, finalPath); err != nil {
		return "", fmt.Errorf("assembly failed: %w", err)
	}
	a.logger.Info().Str("post_id", post.ID).Str("video", finalPath).Int("clips", len(clips)).Msg("Final video assembled")

	// Recorded before upload: a post whose upload fails must not be rendered
	// again on the next run.
	if err := a.ledger.Record(post.ID); err != nil {
		a.logger.Warn().Err(err).Str("post_id", post.ID).Msg("Failed to record post in ledger")
	}

	if a.uploader != nil {
		meta := a.uploadMetadata(ctx, post)
		videoID, err := a.uploader.Upload(ctx, finalPath, meta)
		if err != nil {
			a.logger.Error().Err(err).Str("post_id", post.ID).Msg("Upload failed, video kept on disk")
		} else {
			a.logger.Info().Str("post_id", post.ID).Str("video_id", videoID).Msg("Uploaded")
			a.monitor.RecordUpload()
		}
	}

	if a.config.Output.CleanupArtifacts {
		a.cleanupArtifacts(post.ID, dirs)
	}

	return finalPath, nil
}

// buildSegments decomposes a post into narratable units: the title, one
// segment per self-text page, and one per selected comment. Pagination is
// measured at the renderer's minimum font size, so every page is guaranteed
// to fit its card.
func (a *Agent) buildSegments(post models.Post, comments []models.Comment) ([]models.Segment, error) {
	m, err := a.renderer.Measurer()
	if err != nil {
		return nil, err
	}
	regionW, regionH := a.renderer.TextRegion()
	spacing := a.config.Cards.LineSpacing

	segments := []models.Segment{{
		PostID:      post.ID,
		Kind:        models.SegmentTitle,
		SourceText:  text.CleanForNarration(post.Title),
		DisplayText: post.Title,
		Author:      post.Author,
		Score:       post.Score,
		HasMeta:     true,
	}}

	if post.IsSelfPost && strings.TrimSpace(post.SelfText) != "" {
		pages := text.Paginate(m, post.SelfText, regionW, regionH, spacing)
		for i, page := range pages {
			segments = append(segments, models.Segment{
				PostID:      post.ID,
				Kind:        models.SegmentSelfText,
				Index:       i + 1,
				SourceText:  text.CleanForNarration(page),
				DisplayText: page,
			})
		}
	}

	for i, c := range comments {
		// A comment gets a single card; an overlong body is cut at its first
		// page so the card never overflows.
		display := c.Body
		if pages := text.Paginate(m, c.Body, regionW, regionH, spacing); len(pages) > 1 {
			display = pages[0] + " …"
		}
		segments = append(segments, models.Segment{
			PostID:      post.ID,
			Kind:        models.SegmentComment,
			Index:       i + 1,
			SourceText:  text.CleanForNarration(display),
			DisplayText: display,
			Author:      c.Author,
			Score:       c.Score,
			HasMeta:     true,
		})
	}

	return segments, nil
}

// renderSegment takes one segment from text to a finished clip. Every
// artifact is named by the segment id, so reruns overwrite instead of
// accumulating.
func (a *Agent) renderSegment(ctx context.Context, seg models.Segment, dirs runDirs) (models.Clip, error) {
	narration := seg.SourceText
	if strings.TrimSpace(narration) == "" {
		return models.Clip{}, fmt.Errorf("segment %s has no narratable text", seg.ID())
	}

	audioPath := filepath.Join(dirs.audio, seg.ID()+".mp3")
	if err := a.synth.Synthesize(ctx, narration, audioPath); err != nil {
		return models.Clip{}, fmt.Errorf("synthesis failed: %w", err)
	}

	cardPath := filepath.Join(dirs.cards, seg.ID()+".png")
	card := cards.Card{Text: seg.DisplayText, Author: seg.Author, Score: seg.Score, HasMeta: seg.HasMeta}
	if err := a.renderer.Render(card, cardPath); err != nil {
		return models.Clip{}, fmt.Errorf("card rendering failed: %w", err)
	}

	clip, err := a.composer.Compose(ctx, media.ComposeInput{
		BackgroundVideo: a.config.Video.BackgroundVideo,
		OverlayImage:    cardPath,
		NarrationAudio:  audioPath,
		MusicFile:       a.config.Audio.MusicFile,
		MusicVolume:     a.config.Audio.MusicVolume,
		OutPath:         filepath.Join(dirs.clips, seg.ID()+".mp4"),
	})
	if err != nil {
		return models.Clip{}, fmt.Errorf("composition failed: %w", err)
	}
	return clip, nil
}

// wrapWithBookends prepends the intro and appends the outro clip when
// configured. An unreadable bookend is skipped, never fatal.
func (a *Agent) wrapWithBookends(ctx context.Context, clips []models.Clip) []models.Clip {
	if path := a.config.Video.IntroClip; path != "" {
		if d, err := a.prober.Duration(ctx, path); err != nil {
			a.logger.Warn().Err(err).Str("clip", path).Msg("Skipping unreadable intro clip")
		} else {
			clips = append([]models.Clip{{Path: path, Duration: d}}, clips...)
		}
	}
	if path := a.config.Video.OutroClip; path != "" {
		if d, err := a.prober.Duration(ctx, path); err != nil {
			a.logger.Warn().Err(err).Str("clip", path).Msg("Skipping unreadable outro clip")
		} else {
			clips = append(clips, models.Clip{Path: path, Duration: d})
		}
	}
	return clips
}

func (a *Agent) uploadMetadata(ctx context.Context, post models.Post) models.VideoMetadata {
	if a.metadata != nil {
		meta, err := a.metadata.WriteMetadata(ctx, post)
		if err == nil {
			meta.Tags = append(meta.Tags, a.config.Upload.Tags...)
			return meta
		}
		a.logger.Warn().Err(err).Str("post_id", post.ID).Msg("AI metadata failed, using template metadata")
	}
	return upload.DefaultMetadata(post, a.config.Upload.Tags)
}

type runDirs struct {
	audio string
	cards string
	clips string
	final string
}

func (a *Agent) ensureDirs() (runDirs, error) {
	root := a.config.Output.Root
	dirs := runDirs{
		audio: filepath.Join(root, "audio"),
		cards: filepath.Join(root, "cards"),
		clips: filepath.Join(root, "clips"),
		final: filepath.Join(root, "final"),
	}
	for _, dir := range []string{dirs.audio, dirs.cards, dirs.clips, dirs.final} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return runDirs{}, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return dirs, nil
}

// cleanupArtifacts removes the post's intermediate files. The final video and
// the ledger entry always survive.
func (a *Agent) cleanupArtifacts(postID string, dirs runDirs) {
	for _, dir := range []string{dirs.audio, dirs.cards, dirs.clips} {
		matches, err := filepath.Glob(filepath.Join(dir, postID+"-*"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				a.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove intermediate artifact")
			}
		}
	}
}
