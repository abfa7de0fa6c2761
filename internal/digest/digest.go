package digest

import (
	"time"

	"github.com/1ilseok/briefit/internal/collector"
)

// Group 一个源的结果，失败时 Items 为空、Err 非空
type Group struct {
	Source collector.Source
	Items  []collector.Item
	Err    *collector.SourceError
}

func (g Group) Failed() bool { return g.Err != nil }

// Digest 一次运行的汇总结果，只在本次运行内使用，不落库
type Digest struct {
	GeneratedAt time.Time
	Groups      []Group
}

// IsEmpty 所有源都没有条目，即 "no news" 状态
func (d *Digest) IsEmpty() bool {
	for _, g := range d.Groups {
		if len(g.Items) > 0 {
			return false
		}
	}
	return true
}

// Counts 每个源的条目数
func (d *Digest) Counts() map[collector.Source]int {
	out := make(map[collector.Source]int, len(d.Groups))
	for _, g := range d.Groups {
		out[g.Source] = len(g.Items)
	}
	return out
}

// Failures 按分组顺序返回失败的源
func (d *Digest) Failures() []*collector.SourceError {
	var out []*collector.SourceError
	for _, g := range d.Groups {
		if g.Err != nil {
			out = append(out, g.Err)
		}
	}
	return out
}

func (d *Digest) TotalItems() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Items)
	}
	return n
}
