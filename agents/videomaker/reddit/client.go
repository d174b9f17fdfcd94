// Package reddit fetches posts and comments and selects the batch to render.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"
	goreddit "github.com/vartanbeno/go-reddit/v2/reddit"

	"github.com/deanable/RedditVideoMaker-sub000/internal/models"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// Fetch failure taxonomy. Callers treat all of these as "no data", but the
// boundary keeps them distinguishable.
var (
	ErrNotFound  = errors.New("post not found")
	ErrTransport = errors.New("reddit transport error")
	ErrMalformed = errors.New("malformed reddit response")
)

// Fetcher is the external Reddit boundary the selector depends on.
type Fetcher interface {
	FetchPost(ctx context.Context, id string) (models.Post, error)
	ScanPosts(ctx context.Context, subreddit string, limit int, window string) ([]models.Post, error)
	FetchComments(ctx context.Context, postID string, limit int, sort string) ([]models.Comment, error)
}

// Client adapts the go-reddit API client to the Fetcher contract. Listing
// payloads are decoded into typed Post/Comment values right here; nothing
// downstream ever inspects a raw listing child.
type Client struct {
	api    *goreddit.Client
	logger zerolog.Logger
}

// NewClient builds an authenticated client when credentials are configured
// and a read-only client otherwise.
func NewClient(cfg config.RedditConfig, logger zerolog.Logger) (*Client, error) {
	var (
		api *goreddit.Client
		err error
	)
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		api, err = goreddit.NewClient(goreddit.Credentials{
			ID:       cfg.ClientID,
			Secret:   cfg.ClientSecret,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	} else {
		api, err = goreddit.NewReadonlyClient()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reddit client: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// FetchPost resolves a single post by its base36 id.
func (c *Client) FetchPost(ctx context.Context, id string) (models.Post, error) {
	var pac *goreddit.PostAndComments
	err := c.withRetry(ctx, "fetch post "+id, func() error {
		var err error
		pac, _, err = c.api.Post.Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Post{}, classify(err)
	}
	if pac == nil || pac.Post == nil {
		return models.Post{}, fmt.Errorf("%w: empty post payload for %s", ErrMalformed, id)
	}
	return decodePost(pac.Post)
}

// ScanPosts fetches up to limit top posts of a subreddit over the given
// listing window ("day", "week", "month", "year" or "all").
func (c *Client) ScanPosts(ctx context.Context, subreddit string, limit int, window string) ([]models.Post, error) {
	var raw []*goreddit.Post
	err := c.withRetry(ctx, "scan r/"+subreddit, func() error {
		var err error
		raw, _, err = c.api.Subreddit.TopPosts(ctx, subreddit, &goreddit.ListPostOptions{
			ListOptions: goreddit.ListOptions{Limit: limit},
			Time:        window,
		})
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	posts := make([]models.Post, 0, len(raw))
	for _, rp := range raw {
		post, err := decodePost(rp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Skipping undecodable listing child")
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// commentSortNames maps configured sort names to the listing parameter the
// API accepts. The config's "best" is the API's "confidence".
var commentSortNames = map[string]string{
	"best":          "confidence",
	"confidence":    "confidence",
	"top":           "top",
	"new":           "new",
	"controversial": "controversial",
	"old":           "old",
	"qa":            "qa",
}

// FetchComments returns up to limit top-level comments of a post in the
// configured sort order, each tagged with its depth in the reply tree. The
// listing endpoint is requested directly: the typed Post.Get API cannot carry
// a sort parameter.
func (c *Client) FetchComments(ctx context.Context, postID string, limit int, sort string) ([]models.Comment, error) {
	if sort != "" {
		if _, ok := commentSortNames[strings.ToLower(sort)]; !ok {
			c.logger.Warn().Str("sort", sort).Msg("Unknown comment sort, keeping the listing default order")
		}
	}

	var payload []commentListing
	err := c.withRetry(ctx, "fetch comments of "+postID, func() error {
		req, err := c.api.NewRequest(http.MethodGet, commentsPath(postID, limit, sort), nil)
		if err != nil {
			return err
		}
		payload = payload[:0]
		_, err = c.api.Do(ctx, req, &payload)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	// The endpoint answers with two listings: the post itself, then its
	// comment tree.
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: comment listing for %s has %d parts, want 2", ErrMalformed, postID, len(payload))
	}

	return flattenComments(payload[1].Data.Children, limit), nil
}

func commentsPath(postID string, limit int, sort string) string {
	path := "comments/" + postID
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if s, ok := commentSortNames[strings.ToLower(sort)]; ok {
		params.Set("sort", s)
	}
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	return path
}

// Only the fields the pipeline consumes are decoded from the listing payload.
type commentListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []commentThing `json:"children"`
	} `json:"data"`
}

type commentThing struct {
	Kind string      `json:"kind"`
	Data commentData `json:"data"`
}

type commentData struct {
	ID       string          `json:"id"`
	Author   string          `json:"author"`
	Body     string          `json:"body"`
	Score    int             `json:"score"`
	Stickied bool            `json:"stickied"`
	Replies  json.RawMessage `json:"replies"` // empty string or a nested listing
}

// flattenComments walks up to limit top-level comments depth-first, tagging
// every comment with its reply-tree depth. "more" stubs (kind != t1) are
// skipped rather than paged in.
func flattenComments(children []commentThing, limit int) []models.Comment {
	var out []models.Comment
	topLevel := 0
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		if limit > 0 && topLevel >= limit {
			break
		}
		topLevel++
		appendCommentTree(child, 0, &out)
	}
	return out
}

func appendCommentTree(thing commentThing, depth int, out *[]models.Comment) {
	d := thing.Data
	*out = append(*out, models.Comment{
		ID:       d.ID,
		Author:   d.Author,
		Body:     d.Body,
		Score:    d.Score,
		Depth:    depth,
		Stickied: d.Stickied,
	})

	// Replies is "" for leaves and a listing object for branches.
	if len(d.Replies) == 0 || d.Replies[0] != '{' {
		return
	}
	var replies commentListing
	if err := json.Unmarshal(d.Replies, &replies); err != nil {
		return
	}
	for _, child := range replies.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		appendCommentTree(child, depth+1, out)
	}
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn().Uint("attempt", n+1).Err(err).Msgf("Retrying %s", op)
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(classify(err), ErrNotFound)
		}),
	)
}

func decodePost(rp *goreddit.Post) (models.Post, error) {
	if rp == nil || rp.ID == "" {
		return models.Post{}, fmt.Errorf("%w: listing child is not a post", ErrMalformed)
	}
	post := models.Post{
		ID:           rp.ID,
		Subreddit:    rp.SubredditName,
		Title:        rp.Title,
		Author:       rp.Author,
		Score:        rp.Score,
		SelfText:     rp.Body,
		CommentCount: rp.NumberOfComments,
		Permalink:    rp.Permalink,
		URL:          rp.URL,
		IsSelfPost:   rp.IsSelfPost,
	}
	if rp.Created != nil {
		post.CreatedAt = rp.Created.Time
	}
	return post, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *goreddit.ErrorResponse
	if errors.As(err, &apiErr) {
		if apiErr.Response != nil && apiErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

var postURLPattern = regexp.MustCompile(`(?i)reddit\.com/r/([^/]+)/comments/([a-z0-9]+)`)

// ParsePostURL extracts the subreddit and post id from a Reddit permalink.
func ParsePostURL(rawURL string) (subreddit, id string, err error) {
	m := postURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", "", fmt.Errorf("URL %q is not a reddit post link", rawURL)
	}
	return m[1], strings.ToLower(m[2]), nil
}
