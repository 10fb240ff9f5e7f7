// Package events announces execution lifecycle changes so that UIs can
// refresh without polling.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/pkg/config"
	redis "github.com/go-redis/redis/v8"
	"github.com/google/wire"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewBus, wire.Bind(new(Emitter), new(*Bus)))

type EventType string

const (
	EventExecutionStarted  EventType = "sync.execution.started"
	EventExecutionFinished EventType = "sync.execution.finished"
)

// ExecutionEvent is the pub/sub payload.
type ExecutionEvent struct {
	Type        EventType                 `json:"type"`
	ExecutionID string                    `json:"execution_id"`
	ScheduleID  string                    `json:"schedule_id"`
	SpaceID     string                    `json:"space_id"`
	Status      execution.ExecutionStatus `json:"status"`
	TriggeredBy execution.Trigger         `json:"triggered_by,omitempty"`
	Counters    *execution.Counters       `json:"counters,omitempty"`
	DurationMs  int64                     `json:"duration_ms,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Source      string                    `json:"source,omitempty"`
	Timestamp   int64                     `json:"ts"`
}

// FromExecution builds the event of the given type for exec.
func FromExecution(typ EventType, exec *execution.SyncExecution) ExecutionEvent {
	ev := ExecutionEvent{
		Type:        typ,
		ExecutionID: exec.ID,
		ScheduleID:  exec.ScheduleID,
		SpaceID:     exec.SpaceID,
		Status:      exec.Status,
		TriggeredBy: exec.TriggeredBy,
		Timestamp:   time.Now().UnixMilli(),
	}
	if exec.Status.IsTerminal() {
		counters := exec.Counters
		ev.Counters = &counters
		ev.DurationMs = exec.DurationMs
	}
	if exec.ErrorMessage != nil {
		ev.Error = *exec.ErrorMessage
	}
	return ev
}

// Emitter publishes execution events. Delivery is best effort.
type Emitter interface {
	Emit(ctx context.Context, ev ExecutionEvent)
}

// Bus publishes on a Redis channel. Without a client it only logs.
type Bus struct {
	rdb     *redis.Client
	channel string
	source  string
	logger  *zap.Logger
}

func NewBus(cfg config.Config, rdb *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{
		rdb:     rdb,
		channel: cfg.Redis.Channel,
		source:  cfg.Scheduler.InstanceID,
		logger:  logger,
	}
}

func (b *Bus) Emit(ctx context.Context, ev ExecutionEvent) {
	ev.Source = b.source
	if b.rdb == nil {
		b.logger.Debug("execution event",
			zap.String("type", string(ev.Type)),
			zap.String("execution_id", ev.ExecutionID),
			zap.String("schedule_id", ev.ScheduleID),
			zap.String("status", string(ev.Status)))
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("failed to encode execution event", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("failed to publish execution event",
			zap.String("channel", b.channel),
			zap.String("execution_id", ev.ExecutionID),
			zap.Error(err))
	}
}

// Subscribe decodes events from the channel until ctx is done. The returned
// channel is closed on return.
func (b *Bus) Subscribe(ctx context.Context) <-chan ExecutionEvent {
	out := make(chan ExecutionEvent)
	if b.rdb == nil {
		close(out)
		return out
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			var msg *redis.Message
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				msg = m
			}

			var ev ExecutionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("dropping malformed execution event", zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []ExecutionEvent
}

func (r *Recorder) Emit(_ context.Context, ev ExecutionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []ExecutionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExecutionEvent(nil), r.events...)
}
