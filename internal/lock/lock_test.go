package lock_test

import (
	"testing"

	"github.com/randomtoy/chess-academy-backend/internal/lock"
)

func TestMemoryLocker(t *testing.T) {
	l := lock.NewMemoryLocker()

	release, ok, err := l.TryAcquire("sweep")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	if _, ok, err := l.TryAcquire("sweep"); err != nil || ok {
		t.Fatalf("held lock must not be re-acquired: ok=%v err=%v", ok, err)
	}

	// A different name is independent.
	release2, ok, err := l.TryAcquire("metrics")
	if err != nil || !ok {
		t.Fatalf("independent name: ok=%v err=%v", ok, err)
	}
	if err := release2(); err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	release, ok, err = l.TryAcquire("sweep")
	if err != nil || !ok {
		t.Fatalf("reacquire after release: ok=%v err=%v", ok, err)
	}
	_ = release()
}

func TestFileLocker(t *testing.T) {
	dir := t.TempDir()
	l := lock.NewFileLocker(dir)

	release, ok, err := l.TryAcquire("sweep")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	if _, ok, err := l.TryAcquire("sweep"); err != nil || ok {
		t.Fatalf("held file lock must not be re-acquired: ok=%v err=%v", ok, err)
	}

	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	release, ok, err = l.TryAcquire("sweep")
	if err != nil || !ok {
		t.Fatalf("reacquire after release: ok=%v err=%v", ok, err)
	}
	_ = release()
}
