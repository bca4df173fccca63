package collection

import (
	"sync"
)

// rwLock guards the storage of one list.
// read and write release the lock on every exit path, panics included.
// The lock is not reentrant: calling back into the same list from inside
// fn deadlocks.
type rwLock struct {
	mu sync.RWMutex
}

func (l *rwLock) read(fn func()) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn()
}

func (l *rwLock) write(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}
