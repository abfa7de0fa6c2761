package processor

import (
	"sort"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
)

// Rank 按源配置的规则挑选并截断，不足 MaxItems 时原样返回
func Rank(items []collector.Item, cfg collector.SourceConfig, loc *time.Location) []collector.Item {
	var out []collector.Item
	switch cfg.Rank {
	case collector.RankScoreDesc:
		out = byScore(items)
	case collector.RankPerDayQuota:
		out = perDayQuota(items, cfg.DailyQuota, loc)
	default:
		out = append([]collector.Item(nil), items...)
	}

	if cfg.MaxItems > 0 && len(out) > cfg.MaxItems {
		out = out[:cfg.MaxItems]
	}
	return out
}

// byScore 稳定排序，分数相同保持源顺序；没有分数的排在最后
func byScore(items []collector.Item) []collector.Item {
	out := append([]collector.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return scoreOf(out[i]) > scoreOf(out[j])
	})
	return out
}

func scoreOf(it collector.Item) float64 {
	if it.Score == nil {
		return -1
	}
	return *it.Score
}

// perDayQuota 按自然日分组，每天最多 quota 条，日期升序拼接
func perDayQuota(items []collector.Item, quota int, loc *time.Location) []collector.Item {
	if loc == nil {
		loc = time.UTC
	}

	var days []string
	byDay := make(map[string][]collector.Item)
	for _, it := range items {
		key := it.PublishedAt.In(loc).Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			days = append(days, key)
		}
		if quota > 0 && len(byDay[key]) >= quota {
			continue
		}
		byDay[key] = append(byDay[key], it)
	}
	sort.Strings(days)

	out := make([]collector.Item, 0, len(items))
	for _, d := range days {
		out = append(out, byDay[d]...)
	}
	return out
}
