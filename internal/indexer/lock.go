package indexer

import "sync/atomic"

// IndexLock admits one project run at a time and remembers which project
// root that run is indexing. The zero value is unlocked.
type IndexLock struct {
	root atomic.Pointer[string]
}

// TryAcquire takes the lock for root without blocking and reports whether it
// succeeded.
func (l *IndexLock) TryAcquire(root string) bool {
	return l.root.CompareAndSwap(nil, &root)
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.root.Store(nil)
}

// Holder returns the root being indexed, or "" when the lock is free
func (l *IndexLock) Holder() string {
	if p := l.root.Load(); p != nil {
		return *p
	}
	return ""
}
