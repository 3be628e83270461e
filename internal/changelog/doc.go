// Package changelog writes store changes as JSON lines.
//
// A Recorder subscribes to a store and writes one line per event:
//
//	{"seq":1,"op":"set","path":"user.name","value":"ada"}
//	{"seq":2,"op":"delete","path":"user.name"}
//	{"seq":3,"op":"batch","pattern":"user.**"}
//
// Immediate subscriptions produce set and delete records; batched ones
// produce one batch record per flush.
package changelog
