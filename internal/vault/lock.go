package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

// LockFile is the advisory lock file kept in the versions root.
const LockFile = ".lock"

// DefaultLockTimeout bounds how long Acquire waits for another holder.
const DefaultLockTimeout = 30 * time.Second

const lockPollInterval = 25 * time.Millisecond

// gates serializes goroutines of one process per live directory. flock(2)
// locks belong to the open file description, so two descriptors in the
// same process would not exclude each other without it.
var (
	gatesMu sync.Mutex
	gates   = make(map[string]chan struct{})
)

func gateFor(key string) chan struct{} {
	gatesMu.Lock()
	defer gatesMu.Unlock()
	g, ok := gates[key]
	if !ok {
		g = make(chan struct{}, 1)
		gates[key] = g
	}
	return g
}

// Lock is a scoped, non-reentrant lock over one live directory. It excludes
// other goroutines of this process and, where the platform supports it,
// other processes holding the same versions root.
type Lock struct {
	gate chan struct{}
	path string
}

// NewLock returns the lock for liveDir, stored as versionsDir/.lock.
func NewLock(liveDir, versionsDir string) *Lock {
	key, err := filepath.Abs(liveDir)
	if err != nil {
		key = filepath.Clean(liveDir)
	}
	return &Lock{
		gate: gateFor(key),
		path: filepath.Join(versionsDir, LockFile),
	}
}

// Acquire blocks until the lock is held or timeout elapses. timeout <= 0
// waits forever. The returned release func must be called exactly once.
func (l *Lock) Acquire(timeout time.Duration) (release func(), err error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case l.gate <- struct{}{}:
	case <-deadline:
		return nil, verrors.Newf(verrors.CodeLockFailed, "timed out after %s waiting for in-process lock", timeout).
			WithSuggestion("another operation on this live directory is still running")
	}

	f, err := l.lockFile(timeout, deadline)
	if err != nil {
		<-l.gate
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if f != nil {
				_ = unlockFile(f)
				f.Close()
			}
			<-l.gate
		})
	}, nil
}

func (l *Lock) lockFile(timeout time.Duration, deadline <-chan time.Time) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, verrors.Wrap(verrors.CodeLockFailed, "failed to create lock directory", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, verrors.Wrap(verrors.CodeLockFailed, fmt.Sprintf("failed to open lock file %s", l.path), err)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		locked, err := tryLockFile(f)
		if err != nil {
			f.Close()
			return nil, verrors.Wrap(verrors.CodeLockFailed, fmt.Sprintf("failed to lock %s", l.path), err)
		}
		if locked {
			return f, nil
		}
		select {
		case <-ticker.C:
		case <-deadline:
			f.Close()
			return nil, verrors.Newf(verrors.CodeLockFailed, "timed out after %s waiting for %s", timeout, l.path).
				WithSuggestion("another promptvault process holds the lock; retry when it finishes")
		}
	}
}
