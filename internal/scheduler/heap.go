package scheduler

import "container/heap"

// jobHeap implements container/heap.Interface for Job, earliest
// TriggerAt first.
type jobHeap []Job

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }
func (h jobHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(Job))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *jobHeap, j Job) {
	heap.Push(h, j)
}

func heapPop(h *jobHeap) Job {
	return heap.Pop(h).(Job)
}

// heapRemove removes the first job matching kind and name. Returns false
// when no such job is queued.
func heapRemove(h *jobHeap, kind JobKind, name string) bool {
	for i, j := range *h {
		if j.Kind == kind && j.Name == name {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
