// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule repeats pipeline runs at a fixed interval. A tick that
// arrives while the previous run is still going is skipped.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/preprint-herald/internal/logger"
	"github.com/pdiddy/preprint-herald/internal/pipeline"
)

// Runner performs one run.
type Runner interface {
	Run(ctx context.Context) (pipeline.RunSummary, error)
}

// Scheduler drives a Runner on a constant interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	log      logger.Logger

	// RunImmediately starts the first run when Start is called instead of
	// one interval later.
	RunImmediately bool
}

// New returns a Scheduler. Intervals below one second are rejected.
func New(runner Runner, interval time.Duration, log logger.Logger) (*Scheduler, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("schedule interval %s is below one second", interval)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, log: log}, nil
}

// Run blocks until ctx is cancelled, then waits for an in-flight run to
// finish.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{log: s.log}
	job := s.job(ctx, cl)

	c := cron.New(cron.WithLogger(cl))
	c.Schedule(cron.Every(s.interval), job)
	c.Start()
	s.log.Info("Scheduler started", logger.Duration("interval", s.interval))

	var wg sync.WaitGroup
	if s.RunImmediately {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()
	s.log.Info("Scheduler stopping")
	<-c.Stop().Done()
	wg.Wait()
	s.log.Info("Scheduler stopped")
	return nil
}

// job wraps one run with overlap protection and panic recovery. Every
// caller must share the returned job for the overlap check to hold.
// Recover sits inside the overlap guard so a panicking run still releases
// the guard.
func (s *Scheduler) job(ctx context.Context, cl cron.Logger) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)).Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.Run(ctx); err != nil && !errors.Is(err, pipeline.ErrRunInProgress) {
			s.log.Debug("Scheduled run ended with error", logger.Error(err))
		}
	}))
}

// cronLogger routes cron's key/value logging into the structured logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
