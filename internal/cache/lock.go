package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// lockRetryDelay is how often Lock polls while waiting.
const lockRetryDelay = 50 * time.Millisecond

// FileLock provides exclusive file-based locking across processes.
type FileLock struct {
	fl *flock.Flock
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created if it doesn't exist.
func NewFileLock(path string) *FileLock {
	return &FileLock{fl: flock.New(path)}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.fl.Path()
}

// Lock acquires the lock, waiting until it is free or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return err
	}
	locked, err := l.fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock %s", l.fl.Path())
	}
	return nil
}

// TryLock acquires the lock without waiting. Returns ErrLocked if it is held.
func (l *FileLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return err
	}
	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	return l.fl.Unlock()
}

// Locked reports whether this handle holds the lock.
func (l *FileLock) Locked() bool {
	return l.fl.Locked()
}

// RepoLockPath returns the lock file guarding mutations of one repository.
// commonDir is the git directory shared by all of the repository's worktrees.
func RepoLockPath(commonDir string) string {
	return filepath.Join(commonDir, "wtsweep", "repo.lock")
}
