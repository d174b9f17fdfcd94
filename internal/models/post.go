package models

import "time"

// Post is an immutable snapshot of a Reddit submission. It is created by the
// fetch boundary and never mutated by later pipeline stages.
type Post struct {
	ID           string    `json:"id"`
	Subreddit    string    `json:"subreddit"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Score        int       `json:"score"`
	SelfText     string    `json:"self_text"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	Permalink    string    `json:"permalink"`
	URL          string    `json:"url"`
	IsSelfPost   bool      `json:"is_self_post"`
}

// Comment is one fetched comment of a post. Comments are filtered and ranked
// but never mutated.
type Comment struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	Score    int    `json:"score"`
	Depth    int    `json:"depth"`
	Stickied bool   `json:"stickied"`
}
