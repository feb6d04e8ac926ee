package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"hegemonia/internal/updater"
)

// StatusWriter prints a spinning status line to a writer, rewriting the
// current phase in place. It satisfies updater.Reporter so read-only commands
// such as check can show activity without the full table.
type StatusWriter struct {
	w          io.Writer
	mu         sync.Mutex
	message    string
	phaseStart time.Time
	done       chan struct{}
	exited     chan struct{}
	stopped    bool
}

// NewStatusWriter starts a background spinner that renders the current
// status message to w every 100ms.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:          w,
		phaseStart: time.Now(),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update changes the status message and restarts the phase timer.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.message = msg
	sw.phaseStart = time.Now()
	sw.mu.Unlock()
}

// Phase implements updater.Reporter.
func (sw *StatusWriter) Phase(_ updater.Phase, message string) {
	sw.Update(message)
}

// Progress implements updater.Reporter by appending a percentage to the
// current message without resetting the timer.
func (sw *StatusWriter) Progress(written, total int64) {
	pct := percentOf(written, total)
	if pct < 0 {
		return
	}
	sw.mu.Lock()
	sw.message = fmt.Sprintf("downloading %s / %s (%d%%)", FormatBytes(written), FormatBytes(total), pct)
	sw.mu.Unlock()
}

// Message returns the status line text currently shown.
func (sw *StatusWriter) Message() string {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.message
}

// Stop clears the status line and stops the spinner.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	sw.mu.Unlock()
	close(sw.done)
	<-sw.exited
	fmt.Fprintf(sw.w, "\r\033[K")
}

func (sw *StatusWriter) loop() {
	defer close(sw.exited)
	tick := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			msg := sw.message
			start := sw.phaseStart
			sw.mu.Unlock()

			spinner := spinnerFrames[tick%len(spinnerFrames)]
			tick++
			fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinner, msg, formatElapsed(time.Since(start)))
		}
	}
}

// formatElapsed formats a duration for display in the status line.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
