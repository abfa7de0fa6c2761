package collector

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/gocolly/colly/v2"
)

const (
	tldrBaseURL     = "https://tldr.tech"
	tldrMinTitleLen = 10
)

var readTimeRe = regexp.MustCompile(`\s*\(\d+\s+minute\s+read\)\s*$`)

// TLDRFetcher 按天抓取 TLDR Tech 的每日 newsletter 页面
type TLDRFetcher struct {
	BaseURL   string
	Transport http.RoundTripper
}

func (t *TLDRFetcher) Source() Source {
	return SourceTLDR
}

// issueDays 返回窗口内需要抓取的日期，按时间正序
func issueDays(cfg SourceConfig, now time.Time) []time.Time {
	var days []time.Time
	for d := cfg.WindowStart(now); !d.After(now); d = d.AddDate(0, 0, 1) {
		if cfg.WeekdaysOnly && !isWeekday(d) {
			continue
		}
		days = append(days, d)
	}
	return days
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (t *TLDRFetcher) Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error) {
	log := logger.With("source", string(SourceTLDR))
	log.Info().Msg("fetch TLDR newsletter...")

	base := strings.TrimRight(t.BaseURL, "/")
	if base == "" {
		base = tldrBaseURL
	}

	days := issueDays(cfg, now)
	var (
		items  []Item
		failed int
	)
	for i, day := range days {
		if err := ctx.Err(); err != nil {
			// 整体时间用完时剩下的日期不算缺刊，整个源按不可用处理
			return nil, unavailable(SourceTLDR, fmt.Errorf("fetch budget exhausted after %d of %d issues: %w", i, len(days), err))
		}
		dayItems, err := t.fetchDay(ctx, base, day, cfg.Timeout)
		if err != nil {
			// 某天没有发刊或页面缺失时跳过，不影响其它日期
			failed++
			log.Warn().Err(err).Str("day", day.Format("2006-01-02")).Msg("tldr: skip issue")
			continue
		}
		items = append(items, dayItems...)
	}

	if err := ctx.Err(); err != nil {
		return nil, unavailable(SourceTLDR, fmt.Errorf("fetch budget exhausted: %w", err))
	}
	if len(days) > 0 && failed == len(days) {
		return nil, unavailable(SourceTLDR, fmt.Errorf("all %d issue pages failed", failed))
	}

	log.Info().Int("days", len(days)).Int("failed", failed).Int("fetched", len(items)).Msg("tldr done")
	return items, nil
}

func (t *TLDRFetcher) fetchDay(ctx context.Context, base string, day time.Time, timeout time.Duration) ([]Item, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(base)),
		colly.UserAgent(browserAgent),
		colly.MaxBodySize(maxResponseSize),
	)
	c.SetRequestTimeout(timeout)
	c.WithTransport(&ctxTransport{ctx: ctx, next: newBrotliTransport(t.Transport)})

	var items []Item
	c.OnHTML(`a[href*="utm_source=tldr"]`, func(e *colly.HTMLElement) {
		href := e.Attr("href")
		// 赞助内容与站内链接
		if strings.Contains(href, "tldr.tech") {
			return
		}

		title := strings.TrimSpace(e.ChildText("h3"))
		if title == "" {
			title = strings.TrimSpace(e.Text)
		}
		if len(title) < tldrMinTitleLen || strings.Contains(title, "(Sponsor)") {
			return
		}
		title = readTimeRe.ReplaceAllString(title, "")

		summary := strings.TrimSpace(e.ChildText("p"))
		if summary == "" {
			summary = strings.TrimSpace(e.DOM.Closest("article").Find(".newsletter-html").Text())
		}

		items = append(items, Item{
			Source:      SourceTLDR,
			Title:       title,
			URL:         stripQuery(e.Request.AbsoluteURL(href)),
			PublishedAt: day,
			Body:        summary,
		})
	})

	if err := c.Visit(fmt.Sprintf("%s/tech/%s", base, day.Format("2006-01-02"))); err != nil {
		return nil, err
	}
	return items, nil
}
