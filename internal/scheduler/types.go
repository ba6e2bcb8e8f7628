package scheduler

import "time"

// JobKind distinguishes what a fired job should do.
type JobKind string

const (
	// JobSync drains the pending-action queue.
	JobSync JobKind = "sync"
	// JobRefreshArea re-downloads a cached map area.
	JobRefreshArea JobKind = "refresh-area"
)

// Job is one pending maintenance job in the scheduler heap.
type Job struct {
	// Name identifies the job; for JobRefreshArea it is the area name.
	Name string
	// Kind selects the action taken when the job fires.
	Kind JobKind
	// TriggerAt is the wall-clock time the job should fire.
	TriggerAt time.Time
	// CronExpr makes the job recurring; empty means one-shot. An
	// Interval-recurring job sets Interval instead.
	CronExpr string
	// Interval re-schedules the job a fixed duration after firing.
	// Ignored when CronExpr is set.
	Interval time.Duration
}
