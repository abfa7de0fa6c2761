package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/PuerkitoBio/goquery"
)

const (
	mediumBaseURL     = "https://medium.com"
	mediumMinTitleLen = 15
)

var mediumTags = []string{"technology", "artificial-intelligence", "programming"}

// ErrMissingSession Medium 没有配置 sid
var ErrMissingSession = errors.New("medium session id not configured")

// MediumFetcher 渲染 Medium 的 tag 页面后解析文章卡片，页面依赖 JS 与登录态
type MediumFetcher struct {
	BaseURL  string
	Renderer PageRenderer
}

func (m *MediumFetcher) Source() Source {
	return SourceMedium
}

func (m *MediumFetcher) Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error) {
	log := logger.With("source", string(SourceMedium))

	if cfg.Credential == "" {
		return nil, authRequired(SourceMedium, ErrMissingSession)
	}
	log.Info().Msg("fetch Medium tag pages...")

	base := strings.TrimRight(m.BaseURL, "/")
	if base == "" {
		base = mediumBaseURL
	}
	renderer := m.Renderer
	if renderer == nil {
		renderer = &ChromeRenderer{}
	}

	urls := make([]string, 0, len(mediumTags))
	for _, tag := range mediumTags {
		urls = append(urls, base+"/tag/"+tag)
	}

	pages, err := renderer.Render(ctx, cfg.Credential, urls, cfg.Timeout)
	if err != nil {
		return nil, unavailable(SourceMedium, fmt.Errorf("render: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, unavailable(SourceMedium, fmt.Errorf("fetch budget exhausted: %w", err))
	}

	var (
		items  []Item
		failed int
		seen   = make(map[string]struct{})
	)
	for _, page := range pages {
		if page.Err != nil {
			failed++
			log.Warn().Err(page.Err).Str("url", page.URL).Msg("medium: skip tag page")
			continue
		}
		parsed, err := parseMediumPage(page.HTML, base, now)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("url", page.URL).Msg("medium: parse tag page")
			continue
		}
		for _, it := range parsed {
			// 同一篇文章会出现在多个 tag 下
			if _, ok := seen[it.Title]; ok {
				continue
			}
			seen[it.Title] = struct{}{}
			items = append(items, it)
		}
	}

	if len(pages) == 0 || failed == len(pages) {
		return nil, unavailable(SourceMedium, fmt.Errorf("all %d tag pages failed", len(urls)))
	}

	log.Info().Int("fetched", len(items)).Int("failedPages", failed).Msg("medium done")
	return items, nil
}

func parseMediumPage(html, base string, now time.Time) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var items []Item
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		title := strings.Join(strings.Fields(h.Text()), " ")
		if len(title) < mediumMinTitleLen ||
			strings.Contains(title, "Recommended") ||
			strings.Contains(title, "stories in") {
			return
		}

		link := h.Closest("a")
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		card := h.Closest("article")
		if card.Length() == 0 {
			card = link.Parent()
		}
		published, _ := findDate(card.Text(), now)

		items = append(items, Item{
			Source:      SourceMedium,
			Title:       title,
			URL:         stripQuery(resolveURL(base, href)),
			PublishedAt: published,
			Body:        strings.TrimSpace(card.Find("h3").First().Text()),
		})
	})
	return items, nil
}
