package reddit

import (
	"encoding/json"
	"strings"
	"testing"
)

const commentTreeFixture = `{
	"kind": "Listing",
	"data": {
		"children": [
			{
				"kind": "t1",
				"data": {
					"id": "c1",
					"author": "alice",
					"body": "top level",
					"score": 50,
					"stickied": false,
					"replies": {
						"kind": "Listing",
						"data": {
							"children": [
								{
									"kind": "t1",
									"data": {
										"id": "c1a",
										"author": "bob",
										"body": "a reply",
										"score": 10,
										"stickied": false,
										"replies": ""
									}
								}
							]
						}
					}
				}
			},
			{
				"kind": "more",
				"data": {"id": "_"}
			},
			{
				"kind": "t1",
				"data": {
					"id": "c2",
					"author": "carol",
					"body": "another top level",
					"score": 30,
					"stickied": true,
					"replies": ""
				}
			},
			{
				"kind": "t1",
				"data": {
					"id": "c3",
					"author": "dave",
					"body": "past the limit",
					"score": 20,
					"stickied": false,
					"replies": ""
				}
			}
		]
	}
}`

func decodeFixture(t *testing.T) []commentThing {
	t.Helper()
	var listing commentListing
	if err := json.Unmarshal([]byte(commentTreeFixture), &listing); err != nil {
		t.Fatalf("Failed to decode fixture: %v", err)
	}
	return listing.Data.Children
}

func TestFlattenCommentsTagsDepthAndSkipsMoreStubs(t *testing.T) {
	got := flattenComments(decodeFixture(t), 0)

	wantIDs := []string{"c1", "c1a", "c2", "c3"}
	if len(got) != len(wantIDs) {
		t.Fatalf("Expected %d comments, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}

	if got[0].Depth != 0 || got[1].Depth != 1 {
		t.Errorf("Expected depths 0 and 1 for c1/c1a, got %d and %d", got[0].Depth, got[1].Depth)
	}
	if !got[2].Stickied {
		t.Error("Expected c2 stickied flag preserved")
	}
}

func TestFlattenCommentsLimitCountsTopLevelOnly(t *testing.T) {
	got := flattenComments(decodeFixture(t), 2)

	// Two top-level comments plus c1's reply; c3 is past the limit.
	wantIDs := []string{"c1", "c1a", "c2"}
	if len(got) != len(wantIDs) {
		t.Fatalf("Expected %d comments, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestCommentsPath(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		sort  string
		want  string
	}{
		{
			name:  "best maps to the api name",
			limit: 25,
			sort:  "best",
			want:  "comments/abc?limit=25&sort=confidence",
		},
		{
			name:  "controversial passes through",
			limit: 10,
			sort:  "controversial",
			want:  "comments/abc?limit=10&sort=controversial",
		},
		{
			name:  "unknown sort omitted",
			limit: 10,
			sort:  "bogus",
			want:  "comments/abc?limit=10",
		},
		{
			name: "no params at all",
			want: "comments/abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commentsPath("abc", tt.limit, tt.sort); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCommentsPathSortIsCaseInsensitive(t *testing.T) {
	got := commentsPath("abc", 0, "Top")
	if !strings.Contains(got, "sort=top") {
		t.Errorf("Expected sort=top, got %q", got)
	}
}
