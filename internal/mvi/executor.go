package mvi

import (
	"context"
	"sync"
)

// Executor decides where a task runs.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(task func())

// Execute calls f(task).
func (f ExecutorFunc) Execute(task func()) { f(task) }

// Immediate runs tasks on the calling goroutine.
var Immediate Executor = ExecutorFunc(func(task func()) { task() })

// Goroutine runs every task on a new goroutine.
var Goroutine Executor = ExecutorFunc(func(task func()) { go task() })

// Queue collects tasks until the test runs them.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// Execute enqueues task.
func (q *Queue) Execute(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// RunOne runs the oldest pending task and reports whether there was one.
func (q *Queue) RunOne() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	q.mu.Unlock()
	task()
	return true
}

// Drain runs tasks, including ones enqueued while draining, until none are
// left, and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for q.RunOne() {
		n++
	}
	return n
}

// Loop is a serial owner context: every task runs on the goroutine that
// called Run, one at a time, in submission order.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	doneOnce sync.Once
}

// NewLoop creates a loop with the given submission buffer.
func NewLoop(buffer int) *Loop {
	return &Loop{tasks: make(chan func(), buffer), done: make(chan struct{})}
}

// Execute submits task. It is dropped once the loop has stopped.
func (l *Loop) Execute(task func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.tasks <- task:
	case <-l.done:
	}
}

// Do runs task on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	l.Execute(func() {
		defer close(finished)
		task()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.tasks:
			task()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
