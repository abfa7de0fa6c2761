package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/mmcdole/gofeed"
)

const openAIFeedURL = "https://openai.com/blog/rss.xml"

// OpenAIBlogFetcher 解析 OpenAI 博客的 RSS
type OpenAIBlogFetcher struct {
	FeedURL   string
	Transport http.RoundTripper
}

func (o *OpenAIBlogFetcher) Source() Source {
	return SourceOpenAI
}

func (o *OpenAIBlogFetcher) Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error) {
	log := logger.With("source", string(SourceOpenAI))
	log.Info().Msg("fetch OpenAI blog feed...")

	feedURL := o.FeedURL
	if feedURL == "" {
		feedURL = openAIFeedURL
	}

	resp, err := newRestClient(o.Transport, cfg.Timeout).R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8").
		Get(feedURL)
	if err != nil {
		return nil, unavailable(SourceOpenAI, err)
	}
	if !resp.IsSuccess() {
		return nil, unavailable(SourceOpenAI, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	feed, err := gofeed.NewParser().ParseString(resp.String())
	if err != nil {
		return nil, unavailable(SourceOpenAI, fmt.Errorf("parse feed: %w", err))
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		var published time.Time
		switch {
		case it.PublishedParsed != nil:
			published = it.PublishedParsed.In(now.Location())
		case it.UpdatedParsed != nil:
			published = it.UpdatedParsed.In(now.Location())
		}

		body := it.Description
		if body == "" {
			body = it.Content
		}
		items = append(items, Item{
			Source:      SourceOpenAI,
			Title:       it.Title,
			URL:         it.Link,
			PublishedAt: published,
			Body:        body,
		})
	}

	log.Info().Int("fetched", len(items)).Msg("openai blog done")
	return items, nil
}
