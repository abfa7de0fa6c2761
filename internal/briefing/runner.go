package briefing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
	"github.com/1ilseok/briefit/internal/digest"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/1ilseok/briefit/internal/mailer"
	"github.com/1ilseok/briefit/internal/storage"
	"github.com/1ilseok/briefit/internal/summarizer"
	"github.com/google/uuid"
)

// ErrRunInProgress 另一次运行持有锁
var ErrRunInProgress = errors.New("briefing run already in progress")

const (
	FallbackPassthrough = "passthrough"
	FallbackOmit        = "omit"
)

// Collector 由 digest.Orchestrator 实现
type Collector interface {
	Run(ctx context.Context, configs []collector.SourceConfig) *digest.Digest
}

// Recorder 保存运行日志，可选
type Recorder interface {
	SaveRun(ctx context.Context, rec *storage.RunRecord) error
}

// Locker 防止重叠运行，可选
type Locker interface {
	AcquireRunLock(ctx context.Context, ttl time.Duration) (func(context.Context) error, error)
}

type Options struct {
	Sources  []collector.SourceConfig
	From     string
	To       []string
	Fallback string
	LockTTL  time.Duration
}

// Runner 串起一次完整的周报：收集、摘要、渲染、发送
type Runner struct {
	collector  Collector
	summarizer summarizer.Summarizer
	mailer     mailer.Mailer
	recorder   Recorder
	locker     Locker
	opts       Options
}

func NewRunner(c Collector, s summarizer.Summarizer, m mailer.Mailer, opts Options) *Runner {
	if s == nil {
		s = summarizer.Disabled{}
	}
	if opts.Fallback == "" {
		opts.Fallback = FallbackPassthrough
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &Runner{collector: c, summarizer: s, mailer: m, opts: opts}
}

// WithStore 挂上运行日志与运行锁，任一参数可以为 nil
func (r *Runner) WithStore(rec Recorder, l Locker) *Runner {
	r.recorder = rec
	r.locker = l
	return r
}

// Sources 当前生效的源配置
func (r *Runner) Sources() []collector.SourceConfig {
	return append([]collector.SourceConfig(nil), r.opts.Sources...)
}

type composed struct {
	digest *digest.Digest
	html   string
	text   string
	// 实际渲染出来的分组数，omit 策略可能把所有分组都去掉
	sections int
}

// compose 收集、摘要并渲染，不产生副作用
func (r *Runner) compose(ctx context.Context, rep *Report) (*composed, error) {
	d := r.collector.Run(ctx, r.opts.Sources)
	rep.addDigest(d)
	rep.Subject = mailer.Subject(d.GeneratedAt)

	blocks := digest.Blocks(d)
	res := summarizer.SummarizeAll(ctx, r.summarizer, blocks)

	omit := map[collector.Source]bool{}
	for src, err := range res.Failed {
		rep.Fallbacks[src] = r.opts.Fallback
		if r.opts.Fallback == FallbackOmit {
			omit[src] = true
		}
		logger.Warn().Str("source", string(src)).Str("policy", r.opts.Fallback).Err(err).Msg("summary fallback")
	}

	html, err := digest.Render(digest.RenderInput{
		Digest:    d,
		Subject:   rep.Subject,
		Summaries: res.Summaries,
		Omit:      omit,
	})
	if err != nil {
		return nil, err
	}

	var (
		text     strings.Builder
		sections int
	)
	for _, b := range blocks {
		if omit[b.Source] {
			continue
		}
		sections++
		text.WriteString(b.Text)
		text.WriteString("\n")
	}
	return &composed{digest: d, html: html, text: text.String(), sections: sections}, nil
}

// Run 执行一次完整流程。只有发送失败（或渲染失败）才返回错误；
// 个别源失败、摘要失败都只体现在 Report 里。
func (r *Runner) Run(ctx context.Context, trigger string) (*Report, error) {
	rep := newReport(uuid.NewString(), trigger, time.Now())
	log := logger.With("run", rep.RunID)

	if r.locker != nil {
		release, err := r.locker.AcquireRunLock(ctx, r.opts.LockTTL)
		switch {
		case errors.Is(err, storage.ErrLockHeld):
			return nil, ErrRunInProgress
		case err != nil:
			// 锁服务不可用不影响本次运行，只有发送失败才算失败
			log.Warn().Err(err).Msg("run lock unavailable, continue without lock")
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					log.Warn().Err(err).Msg("release run lock")
				}
			}()
		}
	}

	log.Info().Str("trigger", trigger).Msg("briefing run started")
	err := r.deliver(ctx, rep)
	rep.FinishedAt = time.Now()
	if err != nil {
		rep.Status = StatusFailed
		rep.Error = err.Error()
	}

	r.record(ctx, rep)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Str("status", string(rep.Status)).
		Interface("counts", rep.Counts).
		Int("failedSources", len(rep.Failures)).
		Int("fallbacks", len(rep.Fallbacks)).
		Str("messageId", rep.MessageID).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("briefing run finished")
	return rep, err
}

func (r *Runner) deliver(ctx context.Context, rep *Report) error {
	c, err := r.compose(ctx, rep)
	if err != nil {
		return err
	}
	if c.digest.IsEmpty() {
		rep.Status = StatusEmpty
		logger.Info().Str("run", rep.RunID).Msg("no news this week, skip sending")
		return nil
	}
	if c.sections == 0 {
		rep.Status = StatusEmpty
		logger.Warn().Str("run", rep.RunID).Int("omitted", len(rep.Fallbacks)).Msg("every section omitted after summary failures, skip sending")
		return nil
	}
	if r.mailer == nil {
		return fmt.Errorf("%w: no mailer configured", mailer.ErrDeliveryFailed)
	}

	id, err := r.mailer.Send(ctx, mailer.Message{
		From:    r.opts.From,
		To:      r.opts.To,
		Subject: rep.Subject,
		HTML:    c.html,
		Text:    c.text,
	})
	if err != nil {
		if !errors.Is(err, mailer.ErrDeliveryFailed) {
			err = fmt.Errorf("%w: %v", mailer.ErrDeliveryFailed, err)
		}
		return err
	}
	rep.Status = StatusDelivered
	rep.MessageID = id
	return nil
}

// Preview 收集并渲染但不发送，也不写运行日志
func (r *Runner) Preview(ctx context.Context) (*Report, string, error) {
	rep := newReport(uuid.NewString(), "preview", time.Now())
	c, err := r.compose(ctx, rep)
	rep.FinishedAt = time.Now()
	if err != nil {
		return rep, "", err
	}
	rep.Status = StatusPreview
	return rep, c.html, nil
}

func (r *Runner) record(ctx context.Context, rep *Report) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.SaveRun(context.WithoutCancel(ctx), rep.Record()); err != nil {
		logger.Warn().Str("run", rep.RunID).Err(err).Msg("save run record")
	}
}
