package schedule

type ScheduleType string

const (
	ScheduleTypeManual   ScheduleType = "MANUAL"
	ScheduleTypeInterval ScheduleType = "INTERVAL"
	ScheduleTypeCron     ScheduleType = "CRON"
)

// RunStatus mirrors the status of the schedule's most recent execution.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)
