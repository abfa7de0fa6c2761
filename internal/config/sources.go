package config

import (
	"time"

	"github.com/1ilseok/briefit/internal/collector"
)

const (
	apiTimeout  = 10 * time.Second
	pageTimeout = 20 * time.Second // 单个 Medium 页面，包括等待前端渲染

	tldrIssuePages  = 8 // 7 天窗口最多覆盖 8 个日期
	mediumTagPages  = 3
	browserStartup  = 15 * time.Second
	tldrFetchBudget = apiTimeout * tldrIssuePages
	mediumBudget    = pageTimeout*mediumTagPages + browserStartup
)

// Sources 每个源的固定策略，顺序即 digest 的分组顺序。
// 只有凭证来自配置，其余参数不可调整。
func Sources(cfg *Config) []collector.SourceConfig {
	var medium string
	if cfg != nil {
		medium = cfg.MediumSessionID
	}

	return []collector.SourceConfig{
		{
			Source:     collector.SourcePlaywright,
			WindowDays: 7,
			MaxItems:   5,
			Rank:       collector.RankNone,
			Timeout:    apiTimeout,
			BodyLimit:  1000,
		},
		{
			Source:     collector.SourceHackerNews,
			WindowDays: 7,
			MaxItems:   20,
			Rank:       collector.RankScoreDesc,
			Timeout:    apiTimeout,
			BodyLimit:  300,
		},
		{
			Source:       collector.SourceTLDR,
			WindowDays:   7,
			MaxItems:     21,
			Rank:         collector.RankPerDayQuota,
			DailyQuota:   3,
			WeekdaysOnly: true,
			Timeout:      apiTimeout,
			Budget:       tldrFetchBudget,
			BodyLimit:    500,
		},
		{
			Source:     collector.SourceOpenAI,
			WindowDays: 7,
			MaxItems:   5,
			Rank:       collector.RankNone,
			Timeout:    apiTimeout,
			BodyLimit:  500,
		},
		{
			Source:     collector.SourceAnthropic,
			WindowDays: 7,
			MaxItems:   5,
			Rank:       collector.RankNone,
			Timeout:    apiTimeout,
			BodyLimit:  500,
		},
		{
			Source:             collector.SourceMedium,
			WindowDays:         7,
			MaxItems:           10,
			Rank:               collector.RankNone,
			Timeout:            pageTimeout,
			Budget:             mediumBudget,
			BodyLimit:          300,
			RequiresCredential: true,
			Credential:         medium,
		},
	}
}
