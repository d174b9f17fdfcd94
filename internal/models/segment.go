package models

import "fmt"

// SegmentKind identifies which part of a post a segment narrates.
type SegmentKind string

const (
	SegmentTitle    SegmentKind = "title"
	SegmentSelfText SegmentKind = "selftext"
	SegmentComment  SegmentKind = "comment"
)

// Segment is the pipeline's working unit: one narratable part of a post.
// SourceText is the cleaned text fed to speech synthesis; DisplayText keeps
// the original formatting for the rendered card. Author and Score are shown
// on the card for title and comment segments and are absent for self-text
// pages.
type Segment struct {
	PostID      string
	Kind        SegmentKind
	Index       int // 1-based page/comment index; 0 for title
	SourceText  string
	DisplayText string
	Author      string
	Score       int
	HasMeta     bool
}

// ID returns the stable identifier that names every artifact derived from
// this segment. It is a pure function of post id, kind and index, so reruns
// produce the same file names and two segments never collide.
func (s Segment) ID() string {
	if s.Index == 0 {
		return fmt.Sprintf("%s-%s", s.PostID, s.Kind)
	}
	return fmt.Sprintf("%s-%s-%d", s.PostID, s.Kind, s.Index)
}

// Clip is a rendered fixed-duration video file. For segment clips the
// duration equals the narration audio's duration; intro and outro clips keep
// their native duration and have no segment.
type Clip struct {
	Path     string
	Duration float64 // seconds, measured with ffprobe
}
