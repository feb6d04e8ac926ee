package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hegemonia/internal/tui"
	"hegemonia/internal/updater"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether an update is available without downloading",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	logger, closeLog := openRunLog(env, cmd.ErrOrStderr())
	defer closeLog()

	var rep updater.Reporter
	if !outputJSON && tui.IsInteractive(cmd.ErrOrStderr()) {
		sw := tui.NewStatusWriter(cmd.ErrOrStderr())
		defer sw.Stop()
		rep = sw
	}

	s, err := newSynchronizerFactory(env, false, logger)(rep)
	if err != nil {
		return err
	}
	result, err := s.Check(cmd.Context())
	if sw, ok := rep.(*tui.StatusWriter); ok {
		sw.Stop()
	}
	if err != nil {
		logger.Error("check failed", "err", err)
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	writeCheckText(cmd.OutOrStdout(), result)
	return nil
}

func writeCheckText(w io.Writer, result updater.Result) {
	switch result.Outcome {
	case updater.OutcomeOffline:
		fmt.Fprintf(w, "API unreachable: %s\n", result.ManifestError)
	case updater.OutcomeUpToDate:
		fmt.Fprintf(w, "Up to date: %s v%s\n", result.Mod.FileName, result.Mod.Version)
	case updater.OutcomeUpdateAvailable:
		fmt.Fprintf(w, "Update available: %s\n", updater.Describe(result.Decision, result.Previous, result.Mod))
		fmt.Fprintf(w, "  installed: v%s (%s)\n", result.Previous.Version, result.PreviousStatus)
		fmt.Fprintf(w, "  remote:    v%s %s (%s)\n", result.Mod.Version, result.Mod.FileName, tui.FormatBytes(result.Mod.Size))
	}
}
