package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

const (
	lockPollInterval = 100 * time.Millisecond

	// staleLockAge is how old a lock file must be before it is considered
	// abandoned by a crashed run.
	staleLockAge = 10 * time.Minute
)

// acquireLock creates lockPath exclusively, polling until timeout elapses or
// ctx is cancelled. The returned release func removes the lock, but only while
// the file still carries this holder's token.
func acquireLock(ctx context.Context, lockPath string, timeout time.Duration, logger *log.Logger) (func(), error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	token := lockToken()
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = f.WriteString(token)
			_ = f.Close()
			return func() { releaseLock(lockPath, token) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			logger.Warn("removing abandoned lock", "path", lockPath, "age", time.Since(info.ModTime()).Round(time.Second))
			if takeOverStaleLock(lockPath, token) {
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock: %w", ctx.Err())
		case <-deadline:
			return nil, fmt.Errorf("%w: %s held for more than %s", ErrLocked, lockPath, timeout)
		case <-ticker.C:
		}
	}
}

func lockToken() string {
	return strconv.Itoa(os.Getpid()) + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

func releaseLock(lockPath, token string) {
	data, err := os.ReadFile(lockPath)
	if err != nil || string(data) != token {
		return
	}
	_ = os.Remove(lockPath)
}

// takeOverStaleLock moves the lock aside and checks the mtime again on the
// moved file; a lock that turns out to be live is linked back. It reports
// whether the caller should retry the exclusive create right away.
func takeOverStaleLock(lockPath, token string) bool {
	aside := lockPath + ".stale-" + token
	if err := os.Rename(lockPath, aside); err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	defer func() { _ = os.Remove(aside) }()

	info, err := os.Stat(aside)
	if err == nil && time.Since(info.ModTime()) <= staleLockAge {
		_ = os.Link(aside, lockPath)
		return false
	}
	return true
}
