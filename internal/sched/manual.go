package sched

// Manual is a Scheduler whose turns are driven explicitly by RunPending.
// It is not safe for concurrent use.
type Manual struct {
	tasks []func()
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule queues task for the next turn.
func (m *Manual) Schedule(task func()) error {
	if task != nil {
		m.tasks = append(m.tasks, task)
	}
	return nil
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	return len(m.tasks)
}

// RunPending runs one turn: every task queued before the call, in order.
// Tasks scheduled while the turn runs wait for the next turn.
// Returns the number of tasks executed.
//
// A panicking task propagates to the caller; the tasks of the turn that had
// not run yet are put back at the front of the queue.
func (m *Manual) RunPending() int {
	turn := m.tasks
	m.tasks = nil

	ran := 0
	defer func() {
		if ran < len(turn) {
			rest := turn[ran+1:]
			m.tasks = append(append([]func(){}, rest...), m.tasks...)
		}
	}()

	for ran < len(turn) {
		turn[ran]()
		ran++
	}
	return ran
}

// Drain runs turns until the queue is empty or maxTurns turns have run.
// A maxTurns of zero or less means no limit.
// Returns the total number of tasks executed.
func (m *Manual) Drain(maxTurns int) int {
	total := 0
	for turns := 0; len(m.tasks) > 0; turns++ {
		if maxTurns > 0 && turns >= maxTurns {
			break
		}
		total += m.RunPending()
	}
	return total
}
