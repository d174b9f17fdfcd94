package email

import (
	"strings"
	"testing"
)

func TestRenderReportBody(t *testing.T) {
	body, err := renderReportBody("Video batch report", "2 posts processed",
		[]string{"p1: processed (p1.mp4)", "p2: skipped (already uploaded)"})
	if err != nil {
		t.Fatalf("renderReportBody failed: %v", err)
	}

	if !strings.Contains(body, "Video batch report") || !strings.Contains(body, "2 posts processed") {
		t.Errorf("Expected subject and summary in body, got %s", body)
	}
	if !strings.Contains(body, "p1: processed (p1.mp4)") {
		t.Errorf("Expected per-post lines in body, got %s", body)
	}
}

func TestRenderReportBodyEscapesHTML(t *testing.T) {
	body, err := renderReportBody("report", "summary", []string{"<script>alert(1)</script>"})
	if err != nil {
		t.Fatalf("renderReportBody failed: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("Expected line content HTML-escaped")
	}
}
