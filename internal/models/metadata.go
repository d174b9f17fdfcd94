package models

// VideoMetadata is the listing metadata attached to an uploaded video.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
