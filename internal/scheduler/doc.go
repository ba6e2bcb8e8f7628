// Package scheduler runs wetmap's maintenance jobs in watch mode. It is a
// single-goroutine scheduler over a min-heap of jobs sorted by trigger
// time, with a 60-second max-sleep-cap to ride out NTP steps, DST
// transitions and laptop sleep.
//
// Jobs are in-memory only: the heap is rebuilt from configuration every
// time watch mode starts. Recurring jobs carry a cron expression and are
// re-added after firing.
package scheduler
