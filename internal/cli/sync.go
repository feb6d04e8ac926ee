package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"hegemonia/internal/tui"
	"hegemonia/internal/updater"
)

const banner = "HEGEMONIA - Auto-Updater"

var (
	syncForce      bool
	syncNoProgress bool
)

// syncParams bundles what runSync needs so it can be tested without cobra or
// a real API.
type syncParams struct {
	stdout  io.Writer
	stderr  io.Writer
	mode    tui.OutputMode
	newSync synchronizerFactory
}

// syncReport is the JSON document printed by sync --json.
type syncReport struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	updater.Result
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download the client mod if it is missing or outdated",
		Args:  cobra.NoArgs,
		RunE:  runSyncCmd,
	}
	addSyncFlags(cmd)
	return cmd
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&syncForce, "force", false, "Download again even when up to date")
	cmd.Flags().BoolVar(&syncNoProgress, "no-progress", false, "Disable the interactive progress display")
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	env, err := loadEnvironment()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		return &ExitError{Code: 1, Err: err}
	}
	logger, closeLog := openRunLog(env, cmd.ErrOrStderr())
	defer closeLog()

	p := syncParams{
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
		mode:    tui.DetectMode(cmd.OutOrStdout(), syncNoProgress, outputJSON),
		newSync: newSynchronizerFactory(env, syncForce, logger),
	}

	logger.Debug("output mode", "mode", p.mode)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := runSync(ctx, p); err != nil {
		logger.Error("run failed", "err", err)
		return &ExitError{Code: 1, Err: err}
	}
	logger.Info("run finished")
	return nil
}

// runSync executes one update run in the requested output mode. Failures are
// rendered before they are returned.
func runSync(ctx context.Context, p syncParams) (updater.Result, error) {
	switch p.mode {
	case tui.ModeJSON:
		return runSyncJSON(ctx, p)
	case tui.ModeTUI:
		return runSyncTUI(ctx, p)
	default:
		return runSyncPlain(ctx, p)
	}
}

func runSyncPlain(ctx context.Context, p syncParams) (updater.Result, error) {
	fmt.Fprintf(p.stdout, "%s\n\n", banner)

	s, err := p.newSync(tui.NewLineReporter(p.stdout))
	if err != nil {
		return updater.Result{}, err
	}
	fmt.Fprintf(p.stdout, "[*] Mods directory: %s\n", s.Config().ModsDir)

	result, err := s.Run(ctx)
	if err != nil {
		fmt.Fprintf(p.stderr, "[!] %v\n", err)
		return result, err
	}
	writeSyncSummary(p.stdout, result)
	return result, nil
}

func runSyncTUI(ctx context.Context, p syncParams) (updater.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		result updater.Result
		runErr error
	)
	finished := make(chan struct{})
	model := tui.NewSyncModel(banner)
	err := tui.RunWithWork(p.stdout, model, func(send func(tea.Msg)) {
		defer close(finished)
		rep := tui.NewSyncReporter(send)
		s, err := p.newSync(rep)
		if err != nil {
			runErr = err
			send(tui.ErrorMsg{Err: err})
			return
		}
		result, runErr = s.Run(ctx)
		rep.Finish(result, runErr)
	})

	// The program also exits on ctrl+c; stop the run and wait for it so the
	// lock is released before returning.
	cancel()
	<-finished

	if runErr != nil {
		fmt.Fprintf(p.stderr, "[!] %v\n", runErr)
		return result, runErr
	}
	if err != nil {
		return result, err
	}
	writeSyncSummary(p.stdout, result)
	return result, nil
}

func runSyncJSON(ctx context.Context, p syncParams) (updater.Result, error) {
	s, err := p.newSync(nil)
	if err != nil {
		return updater.Result{}, err
	}
	result, runErr := s.Run(ctx)

	report := syncReport{OK: runErr == nil, Result: result}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	enc := json.NewEncoder(p.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return result, err
	}
	return result, runErr
}

func writeSyncSummary(w io.Writer, result updater.Result) {
	switch result.Outcome {
	case updater.OutcomeOffline:
		fmt.Fprintln(w, "[!] Could not check for updates, keeping the current version")
	case updater.OutcomeUpToDate:
		fmt.Fprintf(w, "[OK] Hegemonia v%s is up to date\n", result.Mod.Version)
	case updater.OutcomeInstalled:
		fmt.Fprintf(w, "[OK] Hegemonia v%s installed (%s)\n", result.Record.Version, tui.FormatBytes(result.Downloaded))
		for _, f := range result.Pruned.Removed {
			fmt.Fprintf(w, "    removed old version: %s\n", f)
		}
		for _, f := range result.Pruned.Failed {
			fmt.Fprintf(w, "    could not remove %s: %s\n", f.Name, f.Error)
		}
	}
}
