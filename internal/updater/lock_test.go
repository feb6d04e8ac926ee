package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hegemonia/internal/logx"
)

func TestAcquireLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hegemonia-version.lock")

	release, err := acquireLock(context.Background(), path, time.Second, logx.Discard())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	_, err = acquireLock(context.Background(), path, 150*time.Millisecond, logx.Discard())
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked while held, got %v", err)
	}

	release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("release must remove the lock file")
	}

	release2, err := acquireLock(context.Background(), path, time.Second, logx.Discard())
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestAcquireLockWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hegemonia-version.lock")
	release, err := acquireLock(context.Background(), path, time.Second, logx.Discard())
	if err != nil {
		t.Fatal(err)
	}
	time.AfterFunc(150*time.Millisecond, release)

	release2, err := acquireLock(context.Background(), path, 2*time.Second, logx.Discard())
	if err != nil {
		t.Fatalf("expected lock after holder released it, got %v", err)
	}
	release2()
}

func TestAcquireLockRemovesStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hegemonia-version.lock")
	writeFile(t, path, []byte("1"))
	old := time.Now().Add(-staleLockAge - time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	release, err := acquireLock(context.Background(), path, 200*time.Millisecond, logx.Discard())
	if err != nil {
		t.Fatalf("expected stale lock to be taken over, got %v", err)
	}
	release()
}

func TestAcquireLockHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hegemonia-version.lock")
	writeFile(t, path, []byte("1"))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := acquireLock(ctx, path, 5*time.Second, logx.Discard())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTakeOverStaleLockKeepsFreshLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hegemonia-version.lock")
	writeFile(t, path, []byte("other-holder"))

	if takeOverStaleLock(path, lockToken()) {
		t.Fatal("a fresh lock must not be taken over")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "other-holder" {
		t.Fatalf("fresh lock must be restored, got %q err=%v", data, err)
	}
	if entries := snapshot(t, dir); len(entries) != 1 {
		t.Fatalf("expected only the lock file, got %v", entries)
	}
}

func TestTakeOverStaleLockRemovesAbandonedLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hegemonia-version.lock")
	writeFile(t, path, []byte("crashed"))
	old := time.Now().Add(-staleLockAge - time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	if !takeOverStaleLock(path, lockToken()) {
		t.Fatal("expected abandoned lock to be taken over")
	}
	if entries := snapshot(t, dir); len(entries) != 0 {
		t.Fatalf("expected an empty directory, got %v", entries)
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hegemonia-version.lock")
	release, err := acquireLock(context.Background(), path, time.Second, logx.Discard())
	if err != nil {
		t.Fatal(err)
	}

	// Another run took the lock over after this one was presumed dead.
	writeFile(t, path, []byte("new-holder"))
	release()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("release must not remove a lock held by someone else: %v", err)
	}
}
