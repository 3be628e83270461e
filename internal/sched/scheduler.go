package sched

// Scheduler queues a task to run on a later turn.
// Implementations must not run the task before Schedule returns, and return
// an error when the task was not queued.
type Scheduler interface {
	Schedule(task func()) error
}

// Func adapts an ordinary function to the Scheduler interface.
type Func func(task func())

// Schedule calls f(task).
func (f Func) Schedule(task func()) error {
	f(task)
	return nil
}
