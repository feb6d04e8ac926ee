package tui

import (
	"io"
	"os"
	"runtime"
	"strings"
)

// OutputMode selects how a run reports its phases.
type OutputMode int

const (
	// ModeTUI renders the phase table and download bar with bubbletea.
	ModeTUI OutputMode = iota
	// ModePlain streams one "[*] ..." line per phase through LineReporter,
	// for redirected output, dumb terminals and --no-progress.
	ModePlain
	// ModeJSON prints nothing while running and one JSON document at the end.
	ModeJSON
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// DetectMode picks the output mode for out. --json wins over --no-progress,
// and the interactive display is only used on a capable terminal.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case noProgress || !IsInteractive(out):
		return ModePlain
	default:
		return ModeTUI
	}
}

// IsInteractive reports whether out is a character device that can redraw
// lines in place. TERM=dumb or an unset TERM counts as non-interactive outside
// Windows, where consoles leave TERM empty.
func IsInteractive(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && !strings.EqualFold(term, "dumb")
}
