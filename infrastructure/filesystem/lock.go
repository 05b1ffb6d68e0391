package filesystem

import (
	"fmt"
	"path/filepath"

	"media-processor/domain/isolation"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the output directory while a run owns it
const LockFileName = ".media-processor.lock"

// RunLock is an advisory lock that keeps two runs out of one output directory
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock for dir without blocking
func AcquireRunLock(dir string) (*RunLock, error) {
	path := filepath.Join(dir, LockFileName)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", isolation.ErrRunInProgress, dir)
	}
	return &RunLock{lock: l}, nil
}

// Release unlocks the lock. The lock file stays in place so every run
// locks the same inode.
func (r *RunLock) Release() error {
	if r == nil || r.lock == nil {
		return nil
	}
	if err := r.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
