package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
)

func TestHashURLDeterministicAndDistinct(t *testing.T) {
	url1 := "https://example.com/a"
	url2 := "https://example.com/b"

	if hashURL(url1) != hashURL(url1) {
		t.Fatalf("hashURL not deterministic for %q", url1)
	}
	if hashURL(url1) == hashURL(url2) {
		t.Fatalf("hashURL should differ for different URLs")
	}
}

func TestTruncateRunesAppendsEllipsis(t *testing.T) {
	s := "플레이라이트 릴리즈 노트가 아주 깁니다"
	out := truncateRunes(s, 5)
	if got := len([]rune(out)); got != 6 {
		t.Fatalf("truncateRunes length = %d, want 6 (including ellipsis): %q", got, out)
	}
	if !strings.HasSuffix(out, "…") {
		t.Fatalf("truncateRunes should append ellipsis: %q", out)
	}

	if full := truncateRunes("short", 10); full != "short" {
		t.Fatalf("truncateRunes should keep original when under limit: %q", full)
	}
	if empty := truncateRunes("anything", 0); empty != "" {
		t.Fatalf("truncateRunes with zero limit = %q, want empty", empty)
	}
}

func TestNormalizeDedupesAndCleans(t *testing.T) {
	p := NewSimpleProcessor()
	now := time.Now()

	items := []collector.Item{
		{Source: collector.SourceOpenAI, Title: "  First   post ", URL: "https://example.com/1", PublishedAt: now, Body: "<p>Hello <b>world</b> &amp; friends</p>"},
		{Source: collector.SourceOpenAI, Title: "Duplicate by URL", URL: "https://example.com/1", PublishedAt: now},
		{Source: collector.SourceOpenAI, Title: "Relative link", URL: "/news/relative", PublishedAt: now},
		{Source: collector.SourceOpenAI, Title: "Bad scheme", URL: "ftp://example.com/file", PublishedAt: now},
		{Source: collector.SourceOpenAI, Title: "", URL: "https://example.com/untitled", PublishedAt: now},
		{Source: collector.SourceOpenAI, Title: "Second post", URL: "https://example.com/2", PublishedAt: now},
	}

	out := p.Normalize(items, 500)
	if len(out) != 2 {
		t.Fatalf("expected 2 items after normalize, got %d: %+v", len(out), out)
	}
	if out[0].Title != "First post" {
		t.Errorf("title = %q, want %q", out[0].Title, "First post")
	}
	if out[0].Body != "Hello world & friends" {
		t.Errorf("body = %q, want tags stripped", out[0].Body)
	}
	if out[1].URL != "https://example.com/2" {
		t.Errorf("second item url = %q", out[1].URL)
	}
}

func TestProcessRunsFullPipeline(t *testing.T) {
	p := NewSimpleProcessor()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cfg := collector.SourceConfig{
		Source:     collector.SourceHackerNews,
		WindowDays: 7,
		MaxItems:   2,
		Rank:       collector.RankScoreDesc,
		BodyLimit:  10,
	}

	score := func(v float64) *float64 { return &v }
	items := []collector.Item{
		{Title: "old", URL: "https://a.example/old", PublishedAt: now.AddDate(0, 0, -30), Score: score(999)},
		{Title: "low", URL: "https://a.example/low", PublishedAt: now.Add(-time.Hour), Score: score(1)},
		{Title: "high", URL: "https://a.example/high", PublishedAt: now.Add(-2 * time.Hour), Score: score(50), Body: "a very long body text"},
		{Title: "mid", URL: "https://a.example/mid", PublishedAt: now.Add(-3 * time.Hour), Score: score(10)},
	}

	out := p.Process(items, cfg, now)
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if out[0].Title != "high" || out[1].Title != "mid" {
		t.Fatalf("unexpected order: %q, %q", out[0].Title, out[1].Title)
	}
	if got := len([]rune(out[0].Body)); got != 11 {
		t.Fatalf("body should be truncated to 10 runes plus ellipsis, got %d (%q)", got, out[0].Body)
	}
}
