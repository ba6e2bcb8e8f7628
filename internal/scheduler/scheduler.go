package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

// Scheduler fires maintenance jobs at their trigger times. A single
// goroutine owns the heap; Add and Remove communicate over channels so no
// locking is needed.
type Scheduler struct {
	addChan    chan Job
	removeChan chan removeReq
	ctx        context.Context
}

type removeReq struct {
	kind JobKind
	name string
}

// New creates and starts a Scheduler. onFire is invoked from the
// scheduler goroutine whenever a job triggers; slow work belongs in the
// callee. The goroutine exits when ctx is cancelled.
func New(ctx context.Context, onFire func(Job)) *Scheduler {
	s := &Scheduler{
		addChan:    make(chan Job, 16),
		removeChan: make(chan removeReq, 16),
		ctx:        ctx,
	}
	go s.run(onFire)
	return s
}

// Add enqueues a job. A job with TriggerAt in the past fires on the next
// wake-up.
func (s *Scheduler) Add(j Job) {
	select {
	case s.addChan <- j:
	case <-s.ctx.Done():
	}
}

// Remove cancels a queued job by kind and name.
func (s *Scheduler) Remove(kind JobKind, name string) {
	select {
	case s.removeChan <- removeReq{kind: kind, name: name}:
	case <-s.ctx.Done():
	}
}

// run is the scheduler goroutine. It sleeps until the earliest job is
// due, capped at maxSleepCap so clock steps are noticed, then fires every
// due job. Recurring jobs are re-added with their next occurrence.
func (s *Scheduler) run(onFire func(Job)) {
	h := &jobHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := time.Until((*h)[0].TriggerAt)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case job := <-s.addChan:
			heapPush(h, job)
			timerCh = resetTimer()

		case req := <-s.removeChan:
			heapRemove(h, req.kind, req.name)
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				job := heapPop(h)
				onFire(job)
				if next, ok := nextOccurrence(job, time.Now()); ok {
					job.TriggerAt = next
					heapPush(h, job)
				}
			}
			timerCh = resetTimer()
		}
	}
}

// nextOccurrence computes when a recurring job fires again. One-shot jobs
// return ok=false.
func nextOccurrence(j Job, after time.Time) (time.Time, bool) {
	if j.CronExpr != "" {
		next, err := gronx.NextTickAfter(j.CronExpr, after, false)
		if err != nil {
			return time.Time{}, false
		}
		return next, true
	}
	if j.Interval > 0 {
		return after.Add(j.Interval), true
	}
	return time.Time{}, false
}

// ValidCron reports whether expr parses as a cron expression.
func ValidCron(expr string) bool {
	return gronx.New().IsValid(expr)
}

// NextCron returns the first tick of expr strictly after the given time.
func NextCron(expr string, after time.Time) (time.Time, bool) {
	next, err := gronx.NextTickAfter(expr, after, false)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}
