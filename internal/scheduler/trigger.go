package scheduler

import (
	"context"
	"fmt"

	"github.com/dataspaces/syncer/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronTrigger calls Tick on a cron spec. Overlapping ticks are skipped.
type CronTrigger struct {
	cron      *cron.Cron
	spec      string
	scheduler *Scheduler
	locker    TickLocker
	logger    *zap.Logger
}

func NewCronTrigger(cfg config.Config, s *Scheduler, locker TickLocker, logger *zap.Logger) *CronTrigger {
	cl := cronLogger{logger: logger.Named("cron").Sugar()}
	return &CronTrigger{
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		spec:      cfg.Scheduler.TickSpec,
		scheduler: s,
		locker:    locker,
		logger:    logger.Named("trigger"),
	}
}

func (t *CronTrigger) Start() error {
	if _, err := t.cron.AddFunc(t.spec, t.fire); err != nil {
		return fmt.Errorf("invalid tick spec %q: %w", t.spec, err)
	}
	t.cron.Start()
	t.logger.Info("cron trigger started", zap.String("spec", t.spec))
	return nil
}

// Stop waits for a running tick to finish.
func (t *CronTrigger) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("cron trigger stopped")
}

func (t *CronTrigger) fire() {
	ctx := context.Background()
	tick := func(ctx context.Context) error {
		_, err := t.scheduler.Tick(ctx)
		return err
	}

	if t.locker == nil {
		if err := tick(ctx); err != nil {
			t.logger.Error("tick failed", zap.Error(err))
		}
		return
	}

	ran, err := t.locker.WithTryLock(ctx, tick)
	if err != nil {
		t.logger.Error("tick failed", zap.Error(err))
	}
	if !ran {
		t.logger.Debug("tick skipped, another replica holds the lock")
	}
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
