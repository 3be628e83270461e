// Package sched provides the per-store task schedulers that decide when a
// deferred batch flush runs.
//
// A Scheduler only queues tasks; it never runs a task in the middle of the
// caller's current work. Two implementations are provided:
//
//   - Manual queues tasks until the owner calls RunPending. Each call is one
//     "turn". Tests and programs with their own main loop use it.
//   - Loop owns a goroutine that executes tasks one at a time in FIFO order.
//     Work submitted through Do runs on the loop, and anything it schedules
//     runs as a later task, after Do's function has returned.
//
// Neither implementation is a process-wide singleton: every store owns its own
// scheduler so independent stores never share flush state.
package sched
