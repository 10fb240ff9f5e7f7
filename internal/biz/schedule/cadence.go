package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
)

// Cadence computes successive run instants.
type Cadence interface {
	Next(after time.Time) time.Time
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type intervalCadence struct {
	every time.Duration
}

func (c intervalCadence) Next(after time.Time) time.Time {
	return after.Add(c.every)
}

type cronCadence struct {
	schedule cron.Schedule
	loc      *time.Location
}

func (c cronCadence) Next(after time.Time) time.Time {
	return c.schedule.Next(after.In(c.loc)).UTC()
}

// ParseCadence reads the cadence parameters of a schedule.
//
// INTERVAL accepts "interval" (Go duration string, e.g. "15m") or one of
// "interval_seconds", "interval_minutes", "interval_hours".
// CRON accepts "cron" (5 or 6 fields, or a descriptor such as "@hourly") and an
// optional "timezone".
func ParseCadence(typ ScheduleType, cfg map[string]any) (Cadence, error) {
	switch typ {
	case ScheduleTypeInterval:
		every, err := parseInterval(cfg)
		if err != nil {
			return nil, err
		}
		if every < time.Minute {
			return nil, fmt.Errorf("%w: interval must be at least 1m, got %s", ErrInvalidCadence, every)
		}
		return intervalCadence{every: every}, nil

	case ScheduleTypeCron:
		expr := cast.ToString(cfg["cron"])
		if expr == "" {
			return nil, fmt.Errorf("%w: missing cron expression", ErrInvalidCadence)
		}
		sched, err := cronParser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCadence, err)
		}
		loc := time.UTC
		if tz := cast.ToString(cfg["timezone"]); tz != "" {
			if loc, err = time.LoadLocation(tz); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCadence, err)
			}
		}
		return cronCadence{schedule: sched, loc: loc}, nil

	default:
		return nil, fmt.Errorf("%w: schedule type %q has no cadence", ErrInvalidCadence, typ)
	}
}

func parseInterval(cfg map[string]any) (time.Duration, error) {
	if raw, ok := cfg["interval"]; ok {
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCadence, err)
		}
		return d, nil
	}
	units := []struct {
		key  string
		unit time.Duration
	}{
		{"interval_seconds", time.Second},
		{"interval_minutes", time.Minute},
		{"interval_hours", time.Hour},
	}
	for _, u := range units {
		raw, ok := cfg[u.key]
		if !ok {
			continue
		}
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidCadence, u.key, err)
		}
		return time.Duration(n) * u.unit, nil
	}
	return 0, fmt.Errorf("%w: missing interval", ErrInvalidCadence)
}
