package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hegemonia/internal/logx"
	"hegemonia/internal/tui"
	"hegemonia/internal/updater"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the installed version, artifacts and leftovers in the mods directory",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	s, err := updater.New(updater.ConfigFrom(env.cfg, env.paths, false), updater.WithLogger(logx.Discard()))
	if err != nil {
		return err
	}
	st, err := s.Inspect()
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	writeStatusText(cmd.OutOrStdout(), st)
	return nil
}

func writeStatusText(w io.Writer, st updater.Status) {
	fmt.Fprintf(w, "Mods directory: %s\n", st.ModsDir)
	fmt.Fprintf(w, "Installed:      v%s (%s)\n", st.Record.Version, st.RecordStatus)
	if st.Record.Hash != "" {
		fmt.Fprintf(w, "SHA-256:        %s\n", st.Record.Hash)
	}
	if st.Locked {
		fmt.Fprintln(w, "Lock:           held (another run in progress or interrupted)")
	}

	if len(st.Artifacts) == 0 {
		fmt.Fprintln(w, "\nNo artifacts installed.")
	} else {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ARTIFACT\tSIZE")
		for _, a := range st.Artifacts {
			fmt.Fprintf(tw, "%s\t%s\n", a.Name, tui.FormatBytes(a.Size))
		}
		_ = tw.Flush()
	}

	for _, name := range st.LeftoverTemps {
		fmt.Fprintf(w, "\nwarning: %s was left by an interrupted download\n", name)
	}
}
