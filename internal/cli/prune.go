package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hegemonia/internal/updater"
)

var (
	pruneDryRun bool
	pruneKeep   string
)

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove older versions of the client mod",
		Long: `Remove older versions of the client mod from the mods directory.

The file to keep is read from the manifest unless --keep names it.`,
		Args: cobra.NoArgs,
		RunE: runPrune,
	}

	cmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "List what would be removed without deleting")
	cmd.Flags().StringVar(&pruneKeep, "keep", "", "Artifact file name to keep (default: from the manifest)")
	return cmd
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	logger, closeLog := openRunLog(env, cmd.ErrOrStderr())
	defer closeLog()

	s, err := newSynchronizerFactory(env, false, logger)(nil)
	if err != nil {
		return err
	}
	result, err := s.Prune(cmd.Context(), pruneKeep, pruneDryRun)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	writePruneText(cmd.OutOrStdout(), result)
	return nil
}

func writePruneText(w io.Writer, result updater.PruneResult) {
	verb := "removed"
	if result.DryRun {
		verb = "would remove"
	}
	for _, name := range result.Removed {
		fmt.Fprintf(w, "%s %s\n", verb, name)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(w, "could not remove %s: %s\n", f.Name, f.Error)
	}
	if len(result.Removed) == 0 && len(result.Failed) == 0 {
		fmt.Fprintln(w, "nothing to prune")
	}
}
