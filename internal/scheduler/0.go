package scheduler

import (
	"context"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/syncer"
	"github.com/google/wire"
)

var Provider = wire.NewSet(
	New,
	NewCronTrigger,
	ProvideLocker,
	wire.Bind(new(Runner), new(*syncer.Executor)),
)

// Runner executes one schedule.
type Runner interface {
	Execute(ctx context.Context, scheduleID string, trigger execution.Trigger) (*syncer.Result, error)
}

// TickLocker runs fn only when this replica wins the tick lock.
type TickLocker interface {
	WithTryLock(ctx context.Context, fn func(ctx context.Context) error) (bool, error)
}
