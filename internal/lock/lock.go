// Package lock provides named try-locks for serializing scheduled tasks
// across process instances.
package lock

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// FileLocker implements ports.Locker with advisory file locks, so two
// processes sharing a lock directory never run the same task concurrently.
type FileLocker struct {
	dir string
}

// NewFileLocker creates a locker that keeps its lock files under dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir}
}

// TryAcquire attempts a non-blocking lock on <dir>/<name>.lock. ok is false
// when another holder has it; that is not an error.
func (l *FileLocker) TryAcquire(name string) (func() error, bool, error) {
	fl := flock.New(filepath.Join(l.dir, name+".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("try lock %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}
	return fl.Unlock, true, nil
}

// MemoryLocker is an in-process Locker for tests and single-instance runs.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

func (l *MemoryLocker) TryAcquire(name string) (func() error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true
	release := func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
		return nil
	}
	return release, true, nil
}
