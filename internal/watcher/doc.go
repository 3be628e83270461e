// Package watcher keeps a store in sync with a document on disk.
//
// A Sync watches one file with fsnotify. Bursts of write events are
// debounced; once the file settles it is reloaded and reconciled into the
// store on the store's event loop, so listeners see only the keys that
// actually changed.
//
// The parent directory is watched rather than the file itself, so editors
// that save by writing a temporary file and renaming it over the original
// are picked up as well.
package watcher
