// Package ai generates upload metadata from post content with Gemini.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

const maxSelfTextExcerpt = 1500

// MetadataWriter asks the model for a listing title, description and tags
// tailored to the post. Callers fall back to template metadata when it fails.
type MetadataWriter struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func NewMetadataWriter(ctx context.Context, cfg config.AIConfig, logger zerolog.Logger) (*MetadataWriter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &MetadataWriter{client: client, model: cfg.Model, logger: logger}, nil
}

// WriteMetadata generates upload metadata for the given post.
func (w *MetadataWriter) WriteMetadata(ctx context.Context, post models.Post) (models.VideoMetadata, error) {
	prompt := buildMetadataPrompt(post)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := w.client.Models.GenerateContent(ctx, w.model, contents, nil)
	if err != nil {
		return models.VideoMetadata{}, fmt.Errorf("metadata generation for post %s failed: %w", post.ID, err)
	}

	responseText := result.Text()
	if responseText == "" {
		return models.VideoMetadata{}, fmt.Errorf("empty metadata response for post %s", post.ID)
	}

	meta, err := parseMetadataResponse(responseText)
	if err != nil {
		return models.VideoMetadata{}, fmt.Errorf("failed to parse metadata response for post %s: %w", post.ID, err)
	}

	w.logger.Debug().Str("post_id", post.ID).Str("title", meta.Title).Msg("Generated upload metadata")
	return meta, nil
}

func buildMetadataPrompt(post models.Post) string {
	return fmt.Sprintf(`You write YouTube listing metadata for narrated Reddit story videos.

POST:
Subreddit: r/%s
Title: %s
Body: %s

INSTRUCTIONS:
1. Write an engaging video title of at most 95 characters. Do not use clickbait that misrepresents the story.
2. Write a 2-4 sentence description summarizing the story without spoiling its ending.
3. Suggest 5-10 lowercase tags relevant to the story and subreddit.

Respond with JSON only, in this format:
{
  "title": "...",
  "description": "...",
  "tags": ["...", "..."]
}`,
		post.Subreddit,
		post.Title,
		truncateString(post.SelfText, maxSelfTextExcerpt),
	)
}

// parseMetadataResponse extracts the JSON object from the model response,
// which may be wrapped in prose or code fences.
func parseMetadataResponse(response string) (models.VideoMetadata, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return models.VideoMetadata{}, fmt.Errorf("no JSON found in response: %s", response)
	}

	var meta models.VideoMetadata
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &meta); err != nil {
		return models.VideoMetadata{}, fmt.Errorf("failed to unmarshal metadata JSON: %w", err)
	}

	if strings.TrimSpace(meta.Title) == "" {
		return models.VideoMetadata{}, fmt.Errorf("metadata title is required but was empty")
	}
	return meta, nil
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
