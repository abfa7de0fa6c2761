package collector

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeAgoRe = regexp.MustCompile(`(?i)^(\d+)\s*(m|min|mins|minute|minutes|h|hr|hrs|hour|hours|d|day|days|w|wk|week|weeks)\s+ago$`)
	dateLikeRe    = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:,\s*\d{4})?\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4}\b|\b\d+\s*(?:m|min|mins|minutes?|h|hrs?|hours?|d|days?|w|wks?|weeks?)\s+ago\b|\byesterday\b|\bjust now\b`)
)

// 有年份的格式
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan. 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// 没有年份，例如 Medium 卡片上的 "Oct 12"
var yearlessLayouts = []string{
	"Jan 2",
	"January 2",
	"Jan. 2",
}

// parseLooseDate 尽力解析页面上的日期文案，返回 false 表示无可靠时间
func parseLooseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "·"), "·")
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	loc := now.Location()

	switch strings.ToLower(s) {
	case "just now", "now":
		return now, true
	case "yesterday", "1 day ago":
		return now.AddDate(0, 0, -1), true
	}

	if m := relativeAgoRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch unit := strings.ToLower(m[2]); {
		case strings.HasPrefix(unit, "m"):
			return now.Add(-time.Duration(n) * time.Minute), true
		case strings.HasPrefix(unit, "h"):
			return now.Add(-time.Duration(n) * time.Hour), true
		case strings.HasPrefix(unit, "d"):
			return now.AddDate(0, 0, -n), true
		default:
			return now.AddDate(0, 0, -7*n), true
		}
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	for _, layout := range yearlessLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		// 跨年：十二月的文章在一月看到时属于去年
		if t.After(now) {
			t = t.AddDate(-1, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}

// findDate 在一段卡片文本中找出第一个像日期的片段并解析
func findDate(text string, now time.Time) (time.Time, bool) {
	for _, cand := range dateLikeRe.FindAllString(text, -1) {
		if t, ok := parseLooseDate(cand, now); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
