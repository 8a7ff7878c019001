// Package watcher keeps a project index current while files change.
//
// Changes reported by fsnotify are debounced: operations on the same path are
// merged until the next tick, then each path is either re-indexed through the
// indexer or, when it no longer exists, removed from storage. Files whose
// content hash is unchanged produce no event. New directories are watched as
// they appear and hidden directories are ignored.
package watcher
