package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs periodic maintenance jobs on cron specs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zerolog.Logger
}

func NewScheduler(logger *zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// Add registers job under name. Spec accepts standard cron lines and descriptors like "@every 10m".
func (s *Scheduler) Add(name, spec string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		job()
		s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job finished")
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("job", name).Str("schedule", spec).Msg("job scheduled")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out")
	}
}

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	SweepExpired(now time.Time) int
}

// SweepJob returns a job that sweeps expired sessions.
func SweepJob(sw Sweeper, logger *zerolog.Logger) func() {
	return func() {
		if n := sw.SweepExpired(time.Now()); n > 0 {
			logger.Info().Int("removed", n).Msg("expired sessions swept")
		}
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
