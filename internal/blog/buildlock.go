package blog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const (
	// LockFilename is the build lock file name under the output dir
	LockFilename = ".build.lock"

	minLockPoll = 10 * time.Millisecond
	maxLockPoll = 500 * time.Millisecond
)

// ErrLockTimeout indicates the build lock was not acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for build lock")

// BuildLock serializes builds of one output directory across processes
// using flock(2). The kernel releases it if the holder dies.
type BuildLock struct {
	path string
	file *os.File
}

// NewBuildLock creates a lock backed by the file at path. The file and its
// parent directories are created on first use.
func NewBuildLock(path string) *BuildLock {
	return &BuildLock{path: path}
}

// TryAcquire takes the lock if it is free. It reports false without error
// when another process holds it.
func (l *BuildLock) TryAcquire() (bool, error) {
	if err := l.open(); err != nil {
		return false, err
	}

	ok, err := l.flock()
	if !ok || err != nil {
		l.closeFile()
	}
	return ok, err
}

// Acquire blocks until the lock is taken, timeout elapses (ErrLockTimeout)
// or ctx is done.
func (l *BuildLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := l.open(); err != nil {
		return err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	poll := minLockPoll
	for {
		ok, err := l.flock()
		if err != nil {
			l.closeFile()
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			l.closeFile()
			return ctx.Err()
		case <-deadline.C:
			l.closeFile()
			return ErrLockTimeout
		case <-time.After(poll):
			poll = min(poll*2, maxLockPoll)
		}
	}
}

// Release unlocks. Releasing an unheld lock is a no-op.
func (l *BuildLock) Release() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

// Held reports whether this instance holds the lock.
func (l *BuildLock) Held() bool {
	return l.file != nil
}

// flock attempts a non-blocking exclusive lock.
func (l *BuildLock) flock() (bool, error) {
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return false, nil
	}
	return false, fmt.Errorf("flock failed: %w", err)
}

func (l *BuildLock) open() error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}

func (l *BuildLock) closeFile() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
