package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/logger"
)

const (
	githubAPIURL      = "https://api.github.com"
	playwrightRepo    = "microsoft/playwright"
	githubReleasePage = 30
)

// PlaywrightFetcher 通过 GitHub REST API 获取 Playwright 的 release
type PlaywrightFetcher struct {
	BaseURL   string
	Token     string // 可选，提高匿名访问的限流额度
	Transport http.RoundTripper
}

func (p *PlaywrightFetcher) Source() Source {
	return SourcePlaywright
}

type githubRelease struct {
	Name        string `json:"name"`
	TagName     string `json:"tag_name"`
	HTMLURL     string `json:"html_url"`
	Body        string `json:"body"`
	Draft       bool   `json:"draft"`
	Prerelease  bool   `json:"prerelease"`
	PublishedAt string `json:"published_at"`
}

func (p *PlaywrightFetcher) Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error) {
	log := logger.With("source", string(SourcePlaywright))
	log.Info().Msg("fetch playwright releases...")

	base := p.BaseURL
	if base == "" {
		base = githubAPIURL
	}

	client := newRestClient(p.Transport, cfg.Timeout).
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("Accept", "application/vnd.github.v3+json")
	if p.Token != "" {
		client.SetAuthToken(p.Token)
	}

	var releases []githubRelease
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParam("per_page", fmt.Sprint(githubReleasePage)).
		SetResult(&releases).
		Get("/repos/" + playwrightRepo + "/releases")
	if err != nil {
		return nil, unavailable(SourcePlaywright, err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return nil, authRequired(SourcePlaywright, fmt.Errorf("github rejected token: %s", resp.Status()))
	case !resp.IsSuccess():
		return nil, unavailable(SourcePlaywright, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	items := make([]Item, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		title := strings.TrimSpace(r.Name)
		if title == "" {
			title = r.TagName
		}
		// 没有发布时间的 release 会在过滤阶段被丢弃
		var published time.Time
		if r.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, r.PublishedAt); err == nil {
				published = t.In(now.Location())
			}
		}
		items = append(items, Item{
			Source:      SourcePlaywright,
			Title:       title,
			URL:         r.HTMLURL,
			PublishedAt: published,
			Body:        r.Body,
		})
	}

	log.Info().Int("fetched", len(items)).Msg("playwright releases done")
	return items, nil
}
