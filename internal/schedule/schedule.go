// Package schedule runs a job on a standard 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "0 6 * * 1-5".
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Parse validates expr without starting anything.
func Parse(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Start runs job at every tick of expr in loc until ctx is done. It returns
// once the loop has been started; the returned channel closes when the loop exits.
// Ticks missed while a job is still running are skipped.
func Start(ctx context.Context, expr string, loc *time.Location, job func(context.Context), logger *zap.Logger) (<-chan struct{}, error) {
	sched, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return run(ctx, sched, loc, time.Now, job, logger), nil
}

func run(ctx context.Context, sched cron.Schedule, loc *time.Location, now func() time.Time, job func(context.Context), logger *zap.Logger) <-chan struct{} {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("schedule")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			current := now().In(loc)
			next := sched.Next(current)
			wait := next.Sub(current)
			logger.Info("next scheduled run",
				zap.Time("at", next),
				zap.Duration("in", wait.Round(time.Second)))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Info("scheduler stopped")
				return
			case <-timer.C:
			}
			job(ctx)
		}
	}()
	return done
}
