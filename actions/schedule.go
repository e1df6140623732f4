package actions

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/logger"
	"github.com/robfig/cron/v3"
)

// JobRunner runs one job to completion.
type JobRunner func(ctx context.Context, title string) *JobResult

type ScheduleConfig struct {
	Log    logger.Logger
	Jobs   JobLister
	RunJob JobRunner
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: ", msg, " ", fmt.Sprint(keysAndValues...))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: ", msg, " ", fmt.Sprint(keysAndValues...), ": ", err)
}

// NewJobScheduler registers every job that has a schedule.
// A run that is still going when its next slot arrives causes that slot to be skipped.
func NewJobScheduler(ctx context.Context, cfg *ScheduleConfig) (*cron.Cron, int, error) {
	cl := cronLogger{log: cfg.Log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	n := 0
	for _, title := range cfg.Jobs.Titles() {
		def, _ := cfg.Jobs.Lookup(title)
		if def.Schedule == "" {
			continue
		}
		title := title
		if _, err := c.AddFunc(def.Schedule, func() {
			res := cfg.RunJob(ctx, title)
			if res.Failed() {
				cfg.Log.Error("Scheduled run of job ", title, " failed: ", res.Err)
			}
		}); err != nil {
			return nil, 0, errors.Wrapf(err, "invalid schedule %q for job %q", def.Schedule, title)
		}
		cfg.Log.Info("Scheduled job ", title, " with ", def.Schedule)
		n++
	}
	return c, n, nil
}

// RunSchedule runs scheduled jobs until ctx is cancelled, then waits for running jobs to finish.
func RunSchedule(ctx context.Context, cfg *ScheduleConfig) error {
	c, n, err := NewJobScheduler(ctx, cfg)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no jobs have a schedule")
	}
	c.Start()
	cfg.Log.Info("Scheduler started with ", n, " job(s)")
	<-ctx.Done()
	cfg.Log.Info("Scheduler stopping, waiting for running jobs")
	<-c.Stop().Done()
	return nil
}
