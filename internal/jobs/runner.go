package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every запускает fn по тикеру до отмены контекста раннера.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				_ = r.runOnce(name, fn)
			}
		}
	}()
}

// runOnce: один прогон с метриками; паника превращается в ошибку.
func (r *Runner) runOnce(name string, fn Job) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in job %s: %v", name, p)
			observability.CaptureErr(err)
		}
		if err != nil {
			metrics.JobErrors.WithLabelValues(name).Inc()
			r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
		}
		metrics.JobRuns.WithLabelValues(name).Inc()
		metrics.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	return fn(r.ctx)
}
