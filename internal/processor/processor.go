package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
	"github.com/microcosm-cc/bluemonday"
)

// SimpleProcessor 做基础的数据清洗：去 HTML、截断、校验链接、按 URL 去重
type SimpleProcessor struct {
	strip *bluemonday.Policy
}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{strip: bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)}
}

// Process 单个源的完整流水线：清洗、窗口过滤、排序截断
func (p *SimpleProcessor) Process(items []collector.Item, cfg collector.SourceConfig, now time.Time) []collector.Item {
	items = p.Normalize(items, cfg.BodyLimit)
	items = FilterWindow(items, cfg, now)
	return Rank(items, cfg, now.Location())
}

// Normalize 清洗单个源的结果，bodyLimit 按 rune 计，<=0 表示不保留正文
func (p *SimpleProcessor) Normalize(items []collector.Item, bodyLimit int) []collector.Item {
	out := make([]collector.Item, 0, len(items))
	seen := make(map[string]struct{})

	for _, it := range items {
		link := strings.TrimSpace(it.URL)
		if !isAbsoluteHTTP(link) {
			continue
		}
		id := hashURL(link)
		if _, ok := seen[id]; ok {
			continue
		}

		title := p.plainText(it.Title)
		if title == "" {
			continue
		}
		seen[id] = struct{}{}

		it.URL = link
		it.Title = title
		it.Body = truncateRunes(p.plainText(it.Body), bodyLimit)
		out = append(out, it)
	}

	return out
}

// plainText 去掉标签并合并空白，bluemonday 会转义实体，这里再还原
func (p *SimpleProcessor) plainText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(p.strip.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return strings.TrimSpace(string(rs[:limit])) + "…"
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
