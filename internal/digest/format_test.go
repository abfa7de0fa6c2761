package digest

import (
	"strings"
	"testing"

	"github.com/1ilseok/briefit/internal/collector"
)

func sampleDigest() *Digest {
	score := 120.0
	return &Digest{
		GeneratedAt: testNow,
		Groups: []Group{
			{Source: collector.SourcePlaywright, Items: []collector.Item{
				{Source: collector.SourcePlaywright, Title: "v1.56.0", URL: "https://github.com/microsoft/playwright/releases/tag/v1.56.0", PublishedAt: testNow, Body: "New test agents"},
			}},
			{Source: collector.SourceHackerNews, Items: []collector.Item{
				{Source: collector.SourceHackerNews, Title: "Show HN: <script>alert(1)</script>", URL: "https://example.com/show", PublishedAt: testNow, Score: &score, Body: "120 points"},
			}},
			{Source: collector.SourceTLDR},
			{Source: collector.SourceMedium, Err: &collector.SourceError{Source: collector.SourceMedium, Kind: collector.ErrSourceAuthRequired}},
		},
	}
}

func TestBlocksOnePerNonEmptySource(t *testing.T) {
	blocks := Blocks(sampleDigest())
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].Source != collector.SourcePlaywright || blocks[1].Source != collector.SourceHackerNews {
		t.Fatalf("blocks out of order: %s, %s", blocks[0].Source, blocks[1].Source)
	}
	if !strings.Contains(blocks[1].Text, "Score: 120") || !strings.Contains(blocks[1].Text, "https://example.com/show") {
		t.Fatalf("block text missing fields:\n%s", blocks[1].Text)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	in := RenderInput{
		Digest:    sampleDigest(),
		Subject:   "Weekly IT Briefing",
		Summaries: map[collector.Source]string{collector.SourcePlaywright: "Playwright shipped agents.\n\nAlso fixes."},
	}
	first, err := Render(in)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	second, err := Render(in)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if first != second {
		t.Fatalf("Render not deterministic")
	}
}

func TestRenderGroupingAndFallback(t *testing.T) {
	out, err := Render(RenderInput{
		Digest:    sampleDigest(),
		Subject:   "Weekly IT Briefing",
		Summaries: map[collector.Source]string{collector.SourcePlaywright: "A quiet week for releases.\n\n1. Playwright shipped test agents\n   that plan and heal tests."},
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	pw := strings.Index(out, "Playwright Releases")
	hn := strings.Index(out, "Hacker News")
	if pw < 0 || hn < 0 || pw > hn {
		t.Fatalf("sections missing or out of order (pw=%d hn=%d)", pw, hn)
	}
	if !strings.Contains(out, "<p>A quiet week for releases.</p>") {
		t.Fatalf("summary paragraph missing")
	}
	// 编号摘要替换对应条目的原始片段，没有摘要的源展示片段
	if !strings.Contains(out, "Playwright shipped test agents that plan and heal tests.") {
		t.Fatalf("numbered summary not attached to item:\n%s", out)
	}
	if strings.Contains(out, "New test agents") {
		t.Fatalf("raw body should be replaced when summarized")
	}
	if !strings.Contains(out, "120 points") {
		t.Fatalf("raw body should be shown for unsummarized source")
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("titles must be escaped")
	}
	if strings.Contains(out, "TLDR Tech") {
		t.Fatalf("empty source should not render a section")
	}
	if !strings.Contains(out, "Medium (authentication required)") {
		t.Fatalf("failed source should be listed")
	}
}

func TestRenderOmitsSources(t *testing.T) {
	out, err := Render(RenderInput{
		Digest: sampleDigest(),
		Omit:   map[collector.Source]bool{collector.SourceHackerNews: true},
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if strings.Contains(out, "Hacker News") {
		t.Fatalf("omitted source rendered")
	}
}

func TestRenderNoNews(t *testing.T) {
	out, err := Render(RenderInput{Digest: &Digest{GeneratedAt: testNow, Groups: []Group{{Source: collector.SourceTLDR}}}})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(out, "No new items this week.") {
		t.Fatalf("no-news document missing marker")
	}
	if _, err := Render(RenderInput{}); err == nil {
		t.Fatalf("expected error for nil digest")
	}
}

func TestSplitSummary(t *testing.T) {
	intro, per := splitSummary("Overview line\n1. first\ncontinued\n\n2) second\nTrailing note")
	if len(intro) != 1 || intro[0] != "Overview line" {
		t.Fatalf("intro = %v", intro)
	}
	if per[1] != "first continued" {
		t.Fatalf("per[1] = %q", per[1])
	}
	if per[2] != "second Trailing note" {
		t.Fatalf("per[2] = %q", per[2])
	}
}
