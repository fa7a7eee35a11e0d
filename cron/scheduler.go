package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"storefront.GO/core/logging"
)

// zapLogger adapts zap to cron.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// jobTimeout bounds a single scheduled run.
const jobTimeout = 2 * time.Minute

// RunJob runs one registered job now.
func RunJob(ctx context.Context, name string) error {
	j, ok := Jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	return j.Run(ctx)
}

// StartCron schedules every registered job and starts the scheduler.
func StartCron(logger *zap.Logger) (*cron.Cron, error) {
	logger = logging.OrNop(logger)
	cl := zapLogger{s: logger.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	for name, j := range Jobs() {
		name, run := name, j.Run
		_, err := c.AddFunc(j.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			start := time.Now()
			if err := run(ctx); err != nil {
				logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
				return
			}
			logger.Info("cron job done", zap.String("job", name), zap.Duration("duration", time.Since(start)))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", name, err)
		}
	}
	c.Start()
	return c, nil
}
