package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"hegemonia/internal/updater"
)

// PhaseColumns is the layout of the sync progress table.
var PhaseColumns = []Column{
	{Header: "PHASE", Width: 8},
	{Header: "STATUS", Width: 11},
	{Header: "DETAIL", Width: 56},
}

// NewSyncModel returns a progress model with one pending row per phase.
func NewSyncModel(title string) ProgressModel {
	m := NewProgressModel(title, PhaseColumns)
	for _, p := range updater.Phases {
		m.AddRow(string(p), []string{string(p), "pending", ""})
	}
	return m
}

// SyncReporter adapts updater.Reporter to bubbletea messages. Phase rows move
// from pending to running to done; download progress drives the bar.
type SyncReporter struct {
	send    func(tea.Msg)
	current updater.Phase
	seen    map[updater.Phase]bool
	lastPct int
}

// NewSyncReporter constructs a reporter that forwards to send.
func NewSyncReporter(send func(tea.Msg)) *SyncReporter {
	return &SyncReporter{send: send, seen: make(map[updater.Phase]bool), lastPct: -1}
}

// Phase implements updater.Reporter.
func (r *SyncReporter) Phase(p updater.Phase, message string) {
	if r.current != "" && r.current != p {
		r.send(RowUpdateMsg{Key: string(r.current), Fields: map[string]string{"STATUS": "done"}})
	}
	r.current = p
	r.seen[p] = true

	status := "running"
	if p == updater.PhaseDownload {
		status = "downloading"
	}
	r.send(RowUpdateMsg{Key: string(p), Fields: map[string]string{"STATUS": status, "DETAIL": message}})
}

// Progress implements updater.Reporter. Only whole-percent changes are sent.
func (r *SyncReporter) Progress(written, total int64) {
	pct := percentOf(written, total)
	if pct == r.lastPct {
		return
	}
	r.lastPct = pct
	r.send(DownloadProgressMsg{Written: written, Total: total})
}

// Finish settles every row once the run is over: the active row becomes the
// outcome (or failed), phases that never ran become skipped.
func (r *SyncReporter) Finish(result updater.Result, err error) {
	for _, p := range updater.Phases {
		if !r.seen[p] {
			r.send(RowUpdateMsg{Key: string(p), Fields: map[string]string{"STATUS": "skipped"}})
		}
	}
	if r.current == "" {
		return
	}
	fields := map[string]string{"STATUS": string(result.Outcome)}
	if err != nil {
		fields = map[string]string{"STATUS": "failed", "DETAIL": err.Error()}
	} else if result.Outcome == "" {
		fields["STATUS"] = "done"
	}
	r.send(RowUpdateMsg{Key: string(r.current), Fields: fields})
}

// LineReporter writes one "[*] ..." line per phase for terminals without TUI
// support.
type LineReporter struct {
	w       io.Writer
	lastPct int
}

// NewLineReporter creates a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w, lastPct: -1}
}

// Phase implements updater.Reporter.
func (r *LineReporter) Phase(p updater.Phase, message string) {
	prefix := "[*]"
	if p == updater.PhaseDone {
		prefix = "[OK]"
	}
	fmt.Fprintf(r.w, "%s %s\n", prefix, message)
}

// Progress implements updater.Reporter. A bar line is printed at every
// quarter of the download.
func (r *LineReporter) Progress(written, total int64) {
	pct := percentOf(written, total)
	if pct < 0 {
		return
	}
	step := pct - pct%25
	if step == r.lastPct {
		return
	}
	r.lastPct = step
	fmt.Fprintf(r.w, "    %s %3d%%\n", TextBar(step, 30), step)
}

// TextBar renders an ASCII progress bar such as [=====-----].
func TextBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := width * pct / 100
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

func percentOf(written, total int64) int {
	if total <= 0 {
		return -1
	}
	if written >= total {
		return 100
	}
	return int(written * 100 / total)
}
