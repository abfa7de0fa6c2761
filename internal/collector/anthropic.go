package collector

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/gocolly/colly/v2"
)

const (
	anthropicBaseURL      = "https://www.anthropic.com"
	anthropicMinTitleLen  = 5
	anthropicLinkSelector = `a[href*="/news/"]`
)

var anthropicPostPathRe = regexp.MustCompile(`^/news/[^/?#]+/?$`)

// anthropicPostURL 只接受本站 /news/<slug> 形式的文章链接
func anthropicPostURL(raw, host string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() != host || !anthropicPostPathRe.MatchString(u.Path) {
		return "", false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), true
}

// AnthropicFetcher 抓取 anthropic.com/news 列表页，页面没有 RSS
type AnthropicFetcher struct {
	BaseURL   string
	Transport http.RoundTripper
}

func (a *AnthropicFetcher) Source() Source {
	return SourceAnthropic
}

func (a *AnthropicFetcher) Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error) {
	log := logger.With("source", string(SourceAnthropic))
	log.Info().Msg("fetch Anthropic news...")

	base := strings.TrimRight(a.BaseURL, "/")
	if base == "" {
		base = anthropicBaseURL
	}

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(base)),
		colly.UserAgent(browserAgent),
		colly.MaxBodySize(maxResponseSize),
	)
	c.SetRequestTimeout(cfg.Timeout)
	c.WithTransport(&ctxTransport{ctx: ctx, next: newBrotliTransport(a.Transport)})

	var (
		items   []Item
		undated int
	)
	host := hostOf(base)
	c.OnHTML(anthropicLinkSelector, func(e *colly.HTMLElement) {
		// 链接可能是相对路径，也可能是完整的 https://www.anthropic.com/news/...
		postURL, ok := anthropicPostURL(e.Request.AbsoluteURL(e.Attr("href")), host)
		if !ok {
			return
		}

		title := strings.TrimSpace(e.ChildText("h2, h3, h4, [class*='title']"))
		if title == "" {
			title = strings.TrimSpace(dateLikeRe.ReplaceAllString(e.Text, " "))
		}
		title = strings.Join(strings.Fields(title), " ")
		if len(title) < anthropicMinTitleLen {
			return
		}

		published, ok := anthropicCardDate(e, now)
		if !ok {
			undated++
		}

		items = append(items, Item{
			Source:      SourceAnthropic,
			Title:       title,
			URL:         postURL,
			PublishedAt: published,
			Body:        strings.TrimSpace(e.ChildText("p")),
		})
	})

	if err := c.Visit(base + "/news"); err != nil {
		return nil, unavailable(SourceAnthropic, err)
	}

	if undated > 0 {
		// 没有日期的卡片会在窗口过滤时被排除
		log.Debug().Int("undated", undated).Msg("anthropic: cards without date")
	}
	log.Info().Int("fetched", len(items)).Msg("anthropic news done")
	return items, nil
}

// anthropicCardDate 依次尝试 <time datetime>、<time> 文本、卡片文本、父节点文本
func anthropicCardDate(e *colly.HTMLElement, now time.Time) (time.Time, bool) {
	if dt := e.ChildAttr("time", "datetime"); dt != "" {
		if t, ok := parseLooseDate(dt, now); ok {
			return t, true
		}
	}
	if t, ok := parseLooseDate(e.ChildText("time"), now); ok {
		return t, true
	}
	if t, ok := findDate(e.Text, now); ok {
		return t, true
	}
	// 父节点里只有这一张卡片时才用它的文本，避免拿到相邻卡片的日期
	parent := e.DOM.Parent()
	if parent.Find(anthropicLinkSelector).Length() != 1 {
		return time.Time{}, false
	}
	return findDate(parent.Text(), now)
}
