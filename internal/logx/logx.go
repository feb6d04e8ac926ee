package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options controls where a run log is written.
type Options struct {
	// Dir receives one timestamped log file per run.
	Dir string
	// Mirror, when set, also receives every record (used by --verbose).
	Mirror io.Writer
	// RunID tags every record; a random id is generated when empty.
	RunID string
}

// New creates a logger that writes to a timestamped file inside opts.Dir. The
// returned closer should be closed when logging is no longer needed.
func New(opts Options) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(opts.Dir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var out io.Writer = file
	if opts.Mirror != nil {
		out = io.MultiWriter(file, opts.Mirror)
	}

	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
		Formatter:       log.LogfmtFormatter,
	}).With("run_id", runID)
	return logger, file, nil
}

// Discard returns a logger that drops everything. Packages fall back to it
// when the caller supplies no logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// NewRunID returns a fresh identifier used to correlate one run's records.
func NewRunID() string {
	return uuid.NewString()
}
