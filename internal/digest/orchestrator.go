package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/1ilseok/briefit/internal/processor"
)

// Orchestrator 并发调用所有源，单个源失败不影响其它源
type Orchestrator struct {
	fetchers  map[collector.Source]collector.Fetcher
	processor *processor.SimpleProcessor
	loc       *time.Location

	// Now 可在测试中替换
	Now func() time.Time
}

func NewOrchestrator(fetchers []collector.Fetcher, loc *time.Location) *Orchestrator {
	if loc == nil {
		loc = time.UTC
	}
	m := make(map[collector.Source]collector.Fetcher, len(fetchers))
	for _, f := range fetchers {
		m[f.Source()] = f
	}
	return &Orchestrator{
		fetchers:  m,
		processor: processor.NewSimpleProcessor(),
		loc:       loc,
		Now:       time.Now,
	}
}

// Run 收集所有配置的源，分组顺序与 configs 一致，与完成顺序无关
func (o *Orchestrator) Run(ctx context.Context, configs []collector.SourceConfig) *Digest {
	now := o.Now().In(o.loc)
	log := logger.With("component", "orchestrator")
	log.Info().Int("sources", len(configs)).Msg("start collect job...")

	groups := make([]Group, len(configs))
	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg collector.SourceConfig) {
			defer wg.Done()
			// 每个 goroutine 只写自己的槽位
			groups[i] = o.collect(ctx, cfg, now)
		}(i, cfg)
	}
	wg.Wait()

	d := &Digest{GeneratedAt: now, Groups: groups}
	log.Info().
		Int("items", d.TotalItems()).
		Int("failed", len(d.Failures())).
		Bool("empty", d.IsEmpty()).
		Msg("collect job done (all sources)")
	return d
}

func (o *Orchestrator) collect(ctx context.Context, cfg collector.SourceConfig, now time.Time) (g Group) {
	g = Group{Source: cfg.Source}
	log := logger.With("source", string(cfg.Source))

	defer func() {
		if r := recover(); r != nil {
			g.Items = nil
			g.Err = collector.AsSourceError(cfg.Source, fmt.Errorf("panic: %v", r))
			log.Error().Err(g.Err).Msg("fetcher panicked")
		}
	}()

	f, ok := o.fetchers[cfg.Source]
	if !ok {
		g.Err = collector.AsSourceError(cfg.Source, errors.New("no fetcher registered"))
		log.Error().Err(g.Err).Msg("skip source")
		return g
	}

	if budget := cfg.FetchBudget(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	started := time.Now()
	raw, err := f.Fetch(ctx, cfg, now)
	if err != nil {
		g.Err = collector.AsSourceError(cfg.Source, err)
		kind := "unavailable"
		if errors.Is(err, collector.ErrSourceAuthRequired) {
			kind = "auth_required"
		}
		log.Warn().Str("kind", kind).Err(err).Dur("took", time.Since(started)).Msg("fetch failed")
		return g
	}

	g.Items = o.processor.Process(raw, cfg, now)
	log.Info().
		Int("fetched", len(raw)).
		Int("kept", len(g.Items)).
		Dur("took", time.Since(started)).
		Msg("fetch done")
	return g
}
