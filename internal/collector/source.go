package collector

import (
	"context"
	"time"
)

// Source 标识一个固定的数据源
type Source string

const (
	SourcePlaywright Source = "playwright"
	SourceHackerNews Source = "hackernews"
	SourceTLDR       Source = "tldr"
	SourceOpenAI     Source = "openai"
	SourceAnthropic  Source = "anthropic"
	SourceMedium     Source = "medium"
)

// AllSources 返回所有数据源，顺序即 digest 中的分组顺序
func AllSources() []Source {
	return []Source{
		SourcePlaywright,
		SourceHackerNews,
		SourceTLDR,
		SourceOpenAI,
		SourceAnthropic,
		SourceMedium,
	}
}

func (s Source) Valid() bool {
	for _, v := range AllSources() {
		if v == s {
			return true
		}
	}
	return false
}

// Label 邮件与日志中展示的名称
func (s Source) Label() string {
	switch s {
	case SourcePlaywright:
		return "Playwright Releases"
	case SourceHackerNews:
		return "Hacker News"
	case SourceTLDR:
		return "TLDR Tech"
	case SourceOpenAI:
		return "OpenAI Blog"
	case SourceAnthropic:
		return "Anthropic News"
	case SourceMedium:
		return "Medium"
	default:
		return string(s)
	}
}

// Item 统一采集后的基础结构
type Item struct {
	Source      Source    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Score       *float64  `json:"score,omitempty"` // 只对按分数排序的源有意义
	Body        string    `json:"body,omitempty"`
}

// RankRule 选取条目的规则
type RankRule string

const (
	RankNone        RankRule = "none"
	RankScoreDesc   RankRule = "score-desc"
	RankPerDayQuota RankRule = "per-day-quota"
)

// SourceConfig 每个数据源的固定策略，运行开始时构造，之后只读
type SourceConfig struct {
	Source       Source        `json:"source"`
	WindowDays   int           `json:"windowDays"`
	MaxItems     int           `json:"maxItems"`
	Rank         RankRule      `json:"rank"`
	DailyQuota   int           `json:"dailyQuota,omitempty"`
	WeekdaysOnly bool          `json:"weekdaysOnly,omitempty"`
	Timeout      time.Duration `json:"timeout"` // 单个请求或单个页面的超时
	Budget       time.Duration `json:"budget,omitempty"`
	BodyLimit    int           `json:"bodyLimit"`

	// 受限源需要的凭证（例如 Medium 的 sid）
	RequiresCredential bool   `json:"requiresCredential,omitempty"`
	Credential         string `json:"-"`
}

// WindowStart 窗口起点：now 所在日零点往前 WindowDays 天，边界当天包含在内
func (c SourceConfig) WindowStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -c.WindowDays)
}

// FetchBudget 整个 Fetch 的时间上限。多页的源需要 Budget 覆盖所有页面，未设置时等于 Timeout
func (c SourceConfig) FetchBudget() time.Duration {
	if c.Budget > 0 {
		return c.Budget
	}
	return c.Timeout
}

// Fetcher 抽象每一个数据源。
// Fetch 只负责抓取与解析，窗口过滤和排序截断由 processor 统一完成。
type Fetcher interface {
	Source() Source
	Fetch(ctx context.Context, cfg SourceConfig, now time.Time) ([]Item, error)
}

func floatPtr(v float64) *float64 { return &v }
