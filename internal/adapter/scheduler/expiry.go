// Package scheduler runs the periodic expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSpec sweeps every five minutes.
const DefaultSpec = "*/5 * * * *"

type Sweeper interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// ExpiryJob expires pending groups whose response window has closed, so
// stale offers are settled even when nobody reads them.
type ExpiryJob struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     zerolog.Logger
	timeout time.Duration
}

func NewExpiryJob(spec string, s Sweeper, log zerolog.Logger) (*ExpiryJob, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	cl := cronLogger{log: log}
	j := &ExpiryJob{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sweeper: s,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := j.cron.AddFunc(spec, func() { j.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", spec, err)
	}
	return j, nil
}

func (j *ExpiryJob) Start() { j.cron.Start() }

// Stop waits for a running sweep or until ctx is done.
func (j *ExpiryJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce performs a single sweep.
func (j *ExpiryJob) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.sweeper.ExpireOverdue(ctx)
	if err != nil {
		j.log.Error().Err(err).Int("expired", n).Msg("expiry sweep failed")
		return n
	}
	if n > 0 {
		j.log.Info().Int("expired", n).Msg("expiry sweep")
	}
	return n
}

type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
