// Package listener implements the listener registry: pattern-filtered
// callbacks over path change events, with immediate and batched delivery.
//
// # Delivery Modes
//
//   - Immediate: the handler runs inside Publish, in registration order,
//     before the mutating call returns.
//   - Batched: matching listeners are collected into a pending batch and the
//     registry schedules one flush on its sched.Scheduler. The flush calls each
//     collected handler once with the listener's own pattern. Batched handlers
//     learn that something under their pattern changed, not what.
//
// # Unsubscribing
//
// Unsubscribe only marks a listener inactive. The registry drops inactive
// listeners from storage at the end of the next outermost Publish, so
// unsubscribing from inside a handler never disturbs an iteration in progress.
// A listener unsubscribed before its turn in the current pass does not fire.
//
// # Reentrancy
//
// Handlers may register, unsubscribe and publish. Listeners registered during
// a Publish are kept but are not visited by that Publish. Nested publishes do
// not compact storage.
//
// A Registry is not safe for concurrent use.
package listener
