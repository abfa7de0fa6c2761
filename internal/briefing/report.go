package briefing

import (
	"errors"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
	"github.com/1ilseok/briefit/internal/digest"
	"github.com/1ilseok/briefit/internal/storage"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusDelivered Status = "delivered"
	StatusEmpty     Status = "empty" // 所有源都没有新内容，不发信
	StatusFailed    Status = "failed"
	StatusPreview   Status = "preview"
)

const (
	KindUnavailable  = "unavailable"
	KindAuthRequired = "auth_required"
)

// Failure 单个源的失败原因
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report 一次运行的结果摘要，可以安全地落库与输出
type Report struct {
	RunID      string                       `json:"runId"`
	Trigger    string                       `json:"trigger"`
	Status     Status                       `json:"status"`
	StartedAt  time.Time                    `json:"startedAt"`
	FinishedAt time.Time                    `json:"finishedAt"`
	Counts     map[collector.Source]int     `json:"counts"`
	Failures   map[collector.Source]Failure `json:"failures,omitempty"`
	// 摘要失败、按降级策略处理的源
	Fallbacks map[collector.Source]string `json:"fallbacks,omitempty"`
	Subject   string                      `json:"subject,omitempty"`
	MessageID string                      `json:"messageId,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

func newReport(runID, trigger string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		Trigger:   trigger,
		StartedAt: started,
		Counts:    map[collector.Source]int{},
		Failures:  map[collector.Source]Failure{},
		Fallbacks: map[collector.Source]string{},
	}
}

func (r *Report) addDigest(d *digest.Digest) {
	for src, n := range d.Counts() {
		r.Counts[src] = n
	}
	for _, f := range d.Failures() {
		kind := KindUnavailable
		if errors.Is(f, collector.ErrSourceAuthRequired) {
			kind = KindAuthRequired
		}
		r.Failures[f.Source] = Failure{Kind: kind, Message: f.Error()}
	}
}

// Record 转换为运行日志记录
func (r *Report) Record() *storage.RunRecord {
	counts := datatypes.JSONMap{}
	for src, n := range r.Counts {
		counts[string(src)] = n
	}
	failures := datatypes.JSONMap{}
	for src, f := range r.Failures {
		failures[string(src)] = map[string]any{"kind": f.Kind, "message": f.Message}
	}
	fallbacks := datatypes.JSONMap{}
	for src, reason := range r.Fallbacks {
		fallbacks[string(src)] = reason
	}
	return &storage.RunRecord{
		ID:         r.RunID,
		Trigger:    r.Trigger,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		ItemCounts: counts,
		Failures:   failures,
		Fallbacks:  fallbacks,
		MessageID:  r.MessageID,
		Error:      r.Error,
	}
}
