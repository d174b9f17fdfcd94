package reddit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// commentFetchMargin is added on top of the tripled request count when
// fetching comment candidates, to absorb filtering losses.
const commentFetchMargin = 10

// Selector picks the batch of posts to render and the comments of each.
// Fetching is delegated to the Fetcher boundary; all filtering and ranking
// happens here.
type Selector struct {
	fetcher  Fetcher
	reddit   config.RedditConfig
	filters  config.FilterConfig
	comments config.CommentConfig
	logger   zerolog.Logger
}

func NewSelector(fetcher Fetcher, reddit config.RedditConfig, filters config.FilterConfig, comments config.CommentConfig, logger zerolog.Logger) *Selector {
	return &Selector{fetcher: fetcher, reddit: reddit, filters: filters, comments: comments, logger: logger}
}

// SelectPosts resolves the batch: a single post when a post URL is
// configured, otherwise the top-scored survivors of a subreddit scan.
func (s *Selector) SelectPosts(ctx context.Context) ([]models.Post, error) {
	if s.reddit.PostURL != "" {
		return s.selectByURL(ctx)
	}
	return s.selectByScan(ctx)
}

func (s *Selector) selectByURL(ctx context.Context) ([]models.Post, error) {
	subreddit, id, err := ParsePostURL(s.reddit.PostURL)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("subreddit", subreddit).Str("post_id", id).Msg("Resolving configured post URL")

	post, err := s.fetcher.FetchPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post %s: %w", id, err)
	}

	if !s.filters.Bypass {
		if post.Score < s.filters.MinPostUpvotes {
			s.logger.Info().Str("post_id", post.ID).Int("score", post.Score).
				Msg("Post rejected: below minimum upvotes")
			return nil, nil
		}
		if post.CommentCount < s.filters.MinComments {
			s.logger.Info().Str("post_id", post.ID).Int("comments", post.CommentCount).
				Msg("Post rejected: below minimum comment count")
			return nil, nil
		}
	}
	return []models.Post{post}, nil
}

func (s *Selector) selectByScan(ctx context.Context) ([]models.Post, error) {
	window := s.listingWindow()
	candidates, err := s.fetcher.ScanPosts(ctx, s.reddit.Subreddit, s.reddit.ScanLimit, window)
	if err != nil {
		return nil, fmt.Errorf("failed to scan r/%s: %w", s.reddit.Subreddit, err)
	}
	s.logger.Info().Int("candidates", len(candidates)).Str("subreddit", s.reddit.Subreddit).
		Str("window", window).Msg("Scanned subreddit listing")

	survivors := s.FilterPosts(candidates)

	// Rank strictly by descending score; the stable sort keeps the original
	// listing order for ties.
	sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].Score > survivors[j].Score })

	if len(survivors) > s.reddit.BatchSize {
		survivors = survivors[:s.reddit.BatchSize]
	}
	return survivors, nil
}

// listingWindow picks the top-listing window wide enough to cover the
// configured date range, so a range in the past can actually surface
// candidates. Without a range the scan stays on today's top posts.
func (s *Selector) listingWindow() string {
	if s.filters.Bypass {
		return "day"
	}
	from, to, err := s.filters.DateRange()
	if err != nil {
		return "day"
	}
	return ListingWindow(from, to, time.Now().UTC())
}

// ListingWindow returns the narrowest top-listing window ("day", "week",
// "month", "year", "all") covering the date range. Both bounds zero means no
// range is configured; a missing lower bound forces the widest window.
func ListingWindow(from, to, now time.Time) string {
	if from.IsZero() && to.IsZero() {
		return "day"
	}
	if from.IsZero() {
		return "all"
	}
	switch age := now.Sub(from); {
	case age <= 24*time.Hour:
		return "day"
	case age <= 7*24*time.Hour:
		return "week"
	case age <= 31*24*time.Hour:
		return "month"
	case age <= 366*24*time.Hour:
		return "year"
	default:
		return "all"
	}
}

// FilterPosts applies the configured candidate filters, preserving input
// order.
func (s *Selector) FilterPosts(candidates []models.Post) []models.Post {
	if s.filters.Bypass {
		return candidates
	}

	from, to, err := s.filters.DateRange()
	if err != nil {
		// Validated at startup; treat a bad range as open on both sides.
		s.logger.Warn().Err(err).Msg("Ignoring invalid date range")
		from, to = time.Time{}, time.Time{}
	}

	var survivors []models.Post
	for _, post := range candidates {
		if !from.IsZero() && post.CreatedAt.UTC().Before(from) {
			continue
		}
		if !to.IsZero() && post.CreatedAt.UTC().After(to) {
			continue
		}
		if post.Score < s.filters.MinPostUpvotes {
			continue
		}
		if post.CommentCount < s.filters.MinComments {
			continue
		}
		if !IsRenderable(post) {
			continue
		}
		survivors = append(survivors, post)
	}
	return survivors
}

// IsRenderable reports whether a scanned post has content the pipeline can
// turn into cards: a self/discussion post, or a direct image link. Link
// posts to arbitrary external pages are excluded.
func IsRenderable(post models.Post) bool {
	if post.IsSelfPost {
		return true
	}
	url := strings.ToLower(post.URL)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(url, ext) {
			return true
		}
	}
	return false
}

// SelectComments fetches and filters the comments to narrate for one post,
// in fetch order.
func (s *Selector) SelectComments(ctx context.Context, post models.Post) ([]models.Comment, error) {
	want := s.comments.Count
	if want <= 0 {
		return nil, nil
	}

	fetchLimit := want*3 + commentFetchMargin
	candidates, err := s.fetcher.FetchComments(ctx, post.ID, fetchLimit, s.comments.Sort)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments of %s: %w", post.ID, err)
	}

	selected := s.FilterComments(candidates)
	if len(selected) > want {
		selected = selected[:want]
	}
	s.logger.Info().Str("post_id", post.ID).Int("fetched", len(candidates)).Int("selected", len(selected)).
		Msg("Selected comments")
	return selected, nil
}

// FilterComments keeps top-level comments only, drops empty, deleted-author
// and stickied ones, applies the minimum score unless bypassed, and the
// keyword include filter when configured.
func (s *Selector) FilterComments(candidates []models.Comment) []models.Comment {
	var selected []models.Comment
	for _, c := range candidates {
		if c.Depth > 0 {
			continue
		}
		if strings.TrimSpace(c.Body) == "" {
			continue
		}
		if c.Author == "" || strings.EqualFold(c.Author, "[deleted]") {
			continue
		}
		if c.Stickied {
			continue
		}
		if !s.comments.BypassMinScore && c.Score < s.comments.MinScore {
			continue
		}
		if len(s.comments.IncludeKeywords) > 0 && !containsAnyKeyword(c.Body, s.comments.IncludeKeywords) {
			continue
		}
		selected = append(selected, c)
	}
	return selected
}

func containsAnyKeyword(body string, keywords []string) bool {
	lower := strings.ToLower(body)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
