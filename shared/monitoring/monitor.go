package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// PostOutcome is the terminal state of one post in a batch run.
type PostOutcome string

const (
	OutcomeProcessed PostOutcome = "processed"
	OutcomeSkipped   PostOutcome = "skipped"
	OutcomeFailed    PostOutcome = "failed"
)

type postResult struct {
	PostID  string
	Outcome PostOutcome
	Detail  string
}

// RunReport accumulates per-post outcomes and segment counters for one batch
// run and produces the human-readable summary logged at run end.
type RunReport struct {
	mu               sync.Mutex
	startedAt        time.Time
	results          []postResult
	segmentsRendered int
	segmentsFailed   int
	uploads          int
}

func NewRunReport() *RunReport {
	return &RunReport{startedAt: time.Now()}
}

func (r *RunReport) RecordPost(postID string, outcome PostOutcome, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, postResult{PostID: postID, Outcome: outcome, Detail: detail})
}

func (r *RunReport) RecordSegmentRendered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segmentsRendered++
}

func (r *RunReport) RecordSegmentFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segmentsFailed++
}

func (r *RunReport) RecordUpload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads++
}

func (r *RunReport) count(outcome PostOutcome) int {
	n := 0
	for _, res := range r.results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// GetSummary returns a one-line summary of the run.
func (r *RunReport) GetSummary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%d posts processed, %d skipped, %d failed; %d segments rendered (%d failed); %d uploaded (took %v)",
		r.count(OutcomeProcessed), r.count(OutcomeSkipped), r.count(OutcomeFailed),
		r.segmentsRendered, r.segmentsFailed, r.uploads,
		time.Since(r.startedAt).Round(time.Second))
}

// Lines returns one human-readable line per post, in processing order.
func (r *RunReport) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, 0, len(r.results))
	for _, res := range r.results {
		line := fmt.Sprintf("%s: %s", res.PostID, res.Outcome)
		if res.Detail != "" {
			line += " (" + res.Detail + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
