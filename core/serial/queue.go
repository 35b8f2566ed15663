// Package serial runs tasks one at a time, in submission order, without a dedicated goroutine.
//
// The goroutine that finds the queue idle drains it, running its own task and every task pushed meanwhile.
// A task that pushes more work (directly or through a callback) does not re-enter: the new task runs
// after the current one returns, on the same goroutine.
package serial

import "sync"

type Queue struct {
	mu       sync.Mutex
	tasks    []func()
	draining bool
}

// Push appends a task without running it.
func (q *Queue) Push(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Drain runs queued tasks until the queue is empty.
// It returns immediately when another call is already draining.
func (q *Queue) Drain() {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	finished := false
	defer func() {
		if !finished { // a task panicked
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
		}
	}()

	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.draining = false
			finished = true
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
	}
}

// Do pushes task then drains.
func (q *Queue) Do(task func()) {
	q.Push(task)
	q.Drain()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
