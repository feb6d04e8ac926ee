package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Test seam.
var removeFile = os.Remove

type (
	// PruneResult lists what a prune pass removed and what it could not.
	PruneResult struct {
		Removed []string       `json:"removed,omitempty"`
		Failed  []PruneFailure `json:"failed,omitempty"`
		DryRun  bool           `json:"dry_run,omitempty"`
	}

	// PruneFailure records one file that could not be deleted.
	PruneFailure struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	}
)

// Stale returns the names of every <prefix>*.jar regular file in dir except
// keep, sorted.
func Stale(dir, prefix, keep string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read mods directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == keep {
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".jar") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Prune deletes the stale artifacts of prefix in dir, keeping keep. A file
// that cannot be deleted (for example one held open by a running game) is
// logged and skipped. With dryRun nothing is deleted and Removed lists what
// would go.
func Prune(dir, prefix, keep string, dryRun bool, logger *log.Logger) (PruneResult, error) {
	names, err := Stale(dir, prefix, keep)
	if err != nil {
		return PruneResult{}, err
	}

	result := PruneResult{DryRun: dryRun}
	for _, name := range names {
		if dryRun {
			result.Removed = append(result.Removed, name)
			continue
		}
		if err := removeFile(filepath.Join(dir, name)); err != nil {
			logger.Warn("skip stale artifact", "file", name, "err", err)
			result.Failed = append(result.Failed, PruneFailure{Name: name, Error: err.Error()})
			continue
		}
		logger.Info("removed stale artifact", "file", name)
		result.Removed = append(result.Removed, name)
	}
	return result, nil
}
