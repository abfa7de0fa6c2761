package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const releasesJSON = `[
  {"name": "v1.56.0", "tag_name": "v1.56.0", "html_url": "https://github.com/microsoft/playwright/releases/tag/v1.56.0",
   "body": "## Highlights\n- new locator API", "draft": false, "published_at": "2026-10-16T17:00:00Z"},
  {"name": "", "tag_name": "v1.55.1", "html_url": "https://github.com/microsoft/playwright/releases/tag/v1.55.1",
   "body": "bug fixes", "draft": false, "published_at": "2026-10-13T08:00:00Z"},
  {"name": "v1.57.0-draft", "tag_name": "v1.57.0", "html_url": "https://github.com/microsoft/playwright/releases/tag/v1.57.0",
   "draft": true, "published_at": null}
]`

func TestPlaywrightFetch(t *testing.T) {
	var gotAuth, gotPerPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/microsoft/playwright/releases" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotPerPage = r.URL.Query().Get("per_page")
		writeJSON(w, http.StatusOK, releasesJSON)
	}))
	defer srv.Close()

	f := &PlaywrightFetcher{BaseURL: srv.URL, Token: "ghp_test"}
	items, err := f.Fetch(context.Background(), weekConfig(SourcePlaywright), testNow)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotAuth != "Bearer ghp_test" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotPerPage != "30" {
		t.Fatalf("per_page = %q, want 30", gotPerPage)
	}
	if len(items) != 2 {
		t.Fatalf("expected drafts to be skipped, got %d items", len(items))
	}
	if items[0].Title != "v1.56.0" || items[1].Title != "v1.55.1" {
		t.Fatalf("unexpected titles: %q, %q", items[0].Title, items[1].Title)
	}
	want := time.Date(2026, 10, 16, 17, 0, 0, 0, time.UTC)
	if !items[0].PublishedAt.Equal(want) {
		t.Fatalf("published = %v, want %v", items[0].PublishedAt, want)
	}
	if items[0].Source != SourcePlaywright {
		t.Fatalf("source = %s", items[0].Source)
	}
}

func TestPlaywrightFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{"bad token", http.StatusUnauthorized, ErrSourceAuthRequired},
		{"server error", http.StatusInternalServerError, ErrSourceUnavailable},
		{"rate limited", http.StatusForbidden, ErrSourceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, `{"message": "nope"}`)
			}))
			defer srv.Close()

			f := &PlaywrightFetcher{BaseURL: srv.URL}
			_, err := f.Fetch(context.Background(), weekConfig(SourcePlaywright), testNow)
			requireKind(t, err, SourcePlaywright, tt.kind)
		})
	}
}
