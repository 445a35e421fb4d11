package periods

import "sync"

// LockRegistry hands out per-period read/write locks. Postings take the read
// side so they can run concurrently with each other; a close takes the write
// side for the whole check-then-commit window, so no posting can interleave.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewLockRegistry constructs an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*sync.RWMutex)}
}

func (r *LockRegistry) lockFor(periodID string) *sync.RWMutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[periodID]
	if !ok {
		lock = &sync.RWMutex{}
		r.locks[periodID] = lock
	}
	return lock
}

// TryAcquirePost takes the shared posting latch. It fails fast instead of
// blocking when a close holds the period, so callers can surface a
// retryable conflict.
func (r *LockRegistry) TryAcquirePost(periodID string) bool {
	return r.lockFor(periodID).TryRLock()
}

// ReleasePost releases the shared posting latch.
func (r *LockRegistry) ReleasePost(periodID string) {
	r.lockFor(periodID).RUnlock()
}

// AcquireClose takes the exclusive close lock, waiting for in-flight
// postings to drain.
func (r *LockRegistry) AcquireClose(periodID string) {
	r.lockFor(periodID).Lock()
}

// ReleaseClose releases the exclusive close lock.
func (r *LockRegistry) ReleaseClose(periodID string) {
	r.lockFor(periodID).Unlock()
}
