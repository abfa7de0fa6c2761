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
	hnSearchURL   = "https://hn.algolia.com"
	hnItemURL     = "https://news.ycombinator.com/item?id="
	hnHitsPerPage = 50 // 多取一些，再按分数挑前 N 条
)

// HackerNewsFetcher 通过 Algolia 搜索 API 获取窗口内的 story
type HackerNewsFetcher struct {
	BaseURL   string
	Transport http.RoundTripper
}

func (h *HackerNewsFetcher) Source() Source {
	return SourceHackerNews
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
	StoryText   string `json:"story_text"`
}

func (h *HackerNewsFetcher) Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error) {
	log := logger.With("source", string(SourceHackerNews))
	log.Info().Msg("fetch Hacker News stories...")

	base := h.BaseURL
	if base == "" {
		base = hnSearchURL
	}

	start := cfg.WindowStart(now)
	filter := fmt.Sprintf("created_at_i>=%d,created_at_i<=%d", start.Unix(), now.Unix())

	var out hnSearchResponse
	resp, err := newRestClient(h.Transport, cfg.Timeout).
		SetBaseURL(strings.TrimRight(base, "/")).
		R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"tags":           "story",
			"numericFilters": filter,
			"hitsPerPage":    fmt.Sprint(hnHitsPerPage),
		}).
		SetResult(&out).
		Get("/api/v1/search")
	if err != nil {
		return nil, unavailable(SourceHackerNews, err)
	}
	if !resp.IsSuccess() {
		return nil, unavailable(SourceHackerNews, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	items := make([]Item, 0, len(out.Hits))
	for _, hit := range out.Hits {
		if strings.TrimSpace(hit.Title) == "" {
			continue
		}
		// Ask HN 等没有外链，回落到讨论页
		itemURL := hit.URL
		if itemURL == "" {
			itemURL = hnItemURL + hit.ObjectID
		}

		body := fmt.Sprintf("%d points, %d comments", hit.Points, hit.NumComments)
		if text := strings.TrimSpace(hit.StoryText); text != "" {
			body += " · " + text
		}

		var published time.Time
		if hit.CreatedAtI > 0 {
			published = time.Unix(hit.CreatedAtI, 0).In(now.Location())
		}
		items = append(items, Item{
			Source:      SourceHackerNews,
			Title:       hit.Title,
			URL:         itemURL,
			PublishedAt: published,
			Score:       floatPtr(float64(hit.Points)),
			Body:        body,
		})
	}

	if len(items) == 0 {
		log.Info().Msg("hackernews: no items fetched")
	}
	return items, nil
}
