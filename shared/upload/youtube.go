// Package upload publishes finished videos to YouTube.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// maxTitleLength is YouTube's hard limit on video titles.
const maxTitleLength = 100

// Uploader wraps an authenticated YouTube Data API client.
type Uploader struct {
	service *youtube.Service
	cfg     config.UploadConfig
	logger  zerolog.Logger
}

// NewUploader authenticates against YouTube. The first run walks the device
// authorization flow on the terminal; afterwards the token file is refreshed
// silently.
func NewUploader(ctx context.Context, cfg config.UploadConfig, logger zerolog.Logger) (*Uploader, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(oauthConfig, cfg.TokenFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	tokenSource := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
		logger:    logger,
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Uploader{service: service, cfg: cfg, logger: logger}, nil
}

// Upload publishes the video file with the given metadata and returns the
// YouTube video id.
func (u *Uploader) Upload(ctx context.Context, videoPath string, meta models.VideoMetadata) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video %s: %w", videoPath, err)
	}
	defer f.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       TruncateTitle(meta.Title),
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  u.cfg.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.Privacy,
			SelfDeclaredMadeForKids: false,
		},
	}

	u.logger.Info().Str("video", videoPath).Str("title", video.Snippet.Title).Msg("Uploading to YouTube")

	call := u.service.Videos.Insert([]string{"snippet", "status"}, video).Media(f)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload of %s failed: %w", videoPath, err)
	}

	u.logger.Info().Str("video_id", resp.Id).Msg("Upload complete")
	return resp.Id, nil
}

// TruncateTitle cuts a title to YouTube's length limit on a rune boundary.
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength-1]) + "…"
}

// DefaultMetadata builds upload metadata directly from the post, used when AI
// metadata generation is disabled or fails.
func DefaultMetadata(post models.Post, extraTags []string) models.VideoMetadata {
	description := fmt.Sprintf("Narrated from r/%s.\nOriginal post by u/%s: https://www.reddit.com%s",
		post.Subreddit, post.Author, post.Permalink)

	tags := make([]string, 0, len(extraTags)+2)
	tags = append(tags, "reddit")
	if post.Subreddit != "" {
		tags = append(tags, strings.ToLower(post.Subreddit))
	}
	tags = append(tags, extraTags...)

	return models.VideoMetadata{
		Title:       TruncateTitle(post.Title),
		Description: description,
		Tags:        tags,
	}
}

// tokenSaver wraps an oauth2.TokenSource and persists refreshed tokens to
// disk so they survive restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	logger    zerolog.Logger
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tokenSource := ts.config.TokenSource(context.Background(), ts.token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		ts.logger.Info().Msg("OAuth token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			ts.logger.Warn().Err(err).Msg("Failed to save refreshed token")
		}
	}

	return newToken, nil
}

// getToken loads the cached token or walks the interactive device flow. An
// expired token with a refresh token is still usable; the tokenSaver refreshes
// it on first use.
func getToken(oauthConfig *oauth2.Config, tokenFile string, logger zerolog.Logger) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil {
		if tok.RefreshToken != "" {
			logger.Info().Time("expires", tok.Expiry).Msg("Loaded OAuth token from file")
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	logger.Info().Msg("No usable cached token, starting device authorization")
	tok, err = getTokenWithDeviceFlow(oauthConfig)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			logger.Error().Str("status", retrieveErr.Response.Status).
				Str("body", strings.TrimSpace(string(retrieveErr.Body))).
				Msg("Device authorization response failed")
		}
		return nil, fmt.Errorf("device authorization failed: %w. Ensure your OAuth client is created as 'TVs and Limited Input devices' and that the YouTube Data API v3 is enabled", err)
	}

	if err := saveToken(tokenFile, tok); err != nil {
		logger.Warn().Err(err).Msg("Failed to save token")
	}
	return tok, nil
}

func getTokenWithDeviceFlow(oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	ctx := context.Background()

	resp, err := oauthConfig.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("YOUTUBE DEVICE AUTHORIZATION REQUIRED\n")
	fmt.Printf("%s\n", strings.Repeat("=", 80))
	fmt.Printf("1. Visit %s in your browser (any device works).\n", resp.VerificationURI)
	fmt.Printf("2. Enter this code when prompted: %s\n\n", resp.UserCode)
	fmt.Printf("Waiting for authorization to complete... (Ctrl+C to cancel)\n")
	fmt.Printf("%s\n", strings.Repeat("-", 80))

	tok, err := oauthConfig.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}

	fmt.Printf("\nAuthorization successful.\n\n")
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
