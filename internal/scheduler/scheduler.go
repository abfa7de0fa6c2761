package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/1ilseok/briefit/internal/briefing"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/robfig/cron/v3"
)

// Job 一次周报运行，由 briefing.Runner 实现
type Job interface {
	Run(ctx context.Context, trigger string) (*briefing.Report, error)
}

type Scheduler struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration
	entry   cron.EntryID
}

// New 按 spec 注册周报任务，loc 决定 cron 表达式的时区
func New(spec string, loc *time.Location, job Job, timeout time.Duration) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	s := &Scheduler{cron: c, job: job, timeout: timeout}
	id, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}
	s.entry = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Time("next", s.Next()).Msg("scheduler started")
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next 下一次触发时间
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.job.Run(ctx, "cron")
	switch {
	case errors.Is(err, briefing.ErrRunInProgress):
		logger.Warn().Msg("skip scheduled run: another run in progress")
	case err != nil:
		logger.Error().Err(err).Msg("scheduled run failed")
	}
}
