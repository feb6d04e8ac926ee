package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"hegemonia/internal/config"
	"hegemonia/internal/logx"
	"hegemonia/internal/paths"
	"hegemonia/internal/updater"
)

// environment is the resolved configuration shared by every command.
type environment struct {
	configFile string
	cfg        config.Config
	paths      paths.InstallPaths
}

func loadEnvironment() (environment, error) {
	cfgFile, err := paths.ConfigFile(configPath)
	if err != nil {
		return environment{}, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return environment{}, err
	}
	if err := cfg.Err(); err != nil {
		return environment{}, err
	}
	pp, err := paths.Resolve(cfg, modsDir)
	if err != nil {
		return environment{}, err
	}
	return environment{configFile: cfgFile, cfg: cfg, paths: pp}, nil
}

// openRunLog starts the per-run log file. A log that cannot be opened is
// reported on stderr and replaced by a discard logger; it never stops a run.
func openRunLog(env environment, stderr io.Writer) (*log.Logger, func()) {
	var mirror io.Writer
	if verbose {
		mirror = stderr
	}
	logger, closer, err := logx.New(logx.Options{Dir: env.paths.LogsDir, Mirror: mirror})
	if err != nil {
		fmt.Fprintf(stderr, "warning: run log disabled: %v\n", err)
		return logx.Discard(), func() {}
	}
	logger.Info("run started",
		"version", Version,
		"config", env.configFile,
		"mods_dir", env.paths.ModsDir,
		"api", env.cfg.API.Base,
	)
	return logger, func() { _ = closer.Close() }
}

// synchronizerFactory builds a Synchronizer wired to the given reporter.
type synchronizerFactory func(rep updater.Reporter) (*updater.Synchronizer, error)

func newSynchronizerFactory(env environment, force bool, logger *log.Logger) synchronizerFactory {
	return func(rep updater.Reporter) (*updater.Synchronizer, error) {
		return updater.New(
			updater.ConfigFrom(env.cfg, env.paths, force),
			updater.WithLogger(logger),
			updater.WithReporter(rep),
		)
	}
}
