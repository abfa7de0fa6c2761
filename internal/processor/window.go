package processor

import (
	"time"

	"github.com/1ilseok/briefit/internal/collector"
)

// FilterWindow 只保留 [WindowStart(now), now] 内的条目。
// 没有可靠时间的条目直接排除，不会用 now 兜底。
func FilterWindow(items []collector.Item, cfg collector.SourceConfig, now time.Time) []collector.Item {
	start := cfg.WindowStart(now)
	out := make([]collector.Item, 0, len(items))
	for _, it := range items {
		if it.PublishedAt.IsZero() {
			continue
		}
		if it.PublishedAt.Before(start) || it.PublishedAt.After(now) {
			continue
		}
		if cfg.WeekdaysOnly && !isWeekday(it.PublishedAt.In(now.Location())) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
