package syncer

import "errors"

var (
	// ErrNoNaturalKey fails runs whose data model has no external key column:
	// without it remote records cannot be matched to local rows.
	ErrNoNaturalKey = errors.New("data model has no natural key")
	// ErrCancelled ends a run whose schedule, connection or data model went
	// away while it was running.
	ErrCancelled = errors.New("sync cancelled")
	// ErrInvalidTarget covers every other configuration problem found when a
	// run starts.
	ErrInvalidTarget = errors.New("invalid sync target")
	// ErrCursorStuck is returned when a source hands back the cursor it was
	// given.
	ErrCursorStuck = errors.New("source cursor did not advance")
)

// AlreadyRunning is the error text of a result rejected by the guard.
const AlreadyRunning = "already running"
