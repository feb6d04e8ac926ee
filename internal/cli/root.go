package cli

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var (
	configPath string
	modsDir    string
	outputJSON bool
	verbose    bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hegemonia",
		Short: "Keep the Hegemonia client mod up to date",
		Long: `Keep the Hegemonia client mod up to date.

Without a subcommand the updater runs "sync": it fetches the modpack manifest,
downloads the client mod when the installed copy is missing, outdated or the
wrong size, and removes older versions. When the API cannot be reached the
current install is kept and the command still succeeds.`,
		Args: cobra.NoArgs,
		RunE: runSyncCmd,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to hegemonia.yaml (default: user config dir)")
	cmd.PersistentFlags().StringVar(&modsDir, "mods-dir", "", "Mods directory (default: <minecraft dir>/mods)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror the run log to stderr")
	addSyncFlags(cmd)

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newPruneCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}
