package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"hegemonia/internal/config"
)

// Test seams.
var (
	userHomeDir   = os.UserHomeDir
	userConfigDir = os.UserConfigDir
	goos          = runtime.GOOS
)

// InstallPaths captures canonical locations for one Minecraft installation.
type InstallPaths struct {
	MinecraftDir string
	ModsDir      string
	VersionFile  string
	LockFile     string
	LogsDir      string
}

// Resolve determines install locations. modsFlag (from --mods-dir) wins over
// the config, which wins over the per-OS Minecraft default.
func Resolve(cfg config.Config, modsFlag string) (InstallPaths, error) {
	mcDir := strings.TrimSpace(cfg.Paths.MinecraftDir)
	if mcDir == "" {
		var err error
		mcDir, err = MinecraftDir()
		if err != nil {
			return InstallPaths{}, err
		}
	}
	mcDir, err := filepath.Abs(mcDir)
	if err != nil {
		return InstallPaths{}, fmt.Errorf("resolve minecraft dir: %w", err)
	}

	modsDir := strings.TrimSpace(modsFlag)
	if modsDir == "" {
		modsDir = strings.TrimSpace(cfg.Paths.ModsDir)
	}
	if modsDir == "" {
		modsDir = filepath.Join(mcDir, "mods")
	} else {
		modsDir = resolveAgainst(mcDir, modsDir)
	}

	return newInstallPaths(mcDir, modsDir, cfg.Paths.VersionFile), nil
}

func newInstallPaths(mcDir, modsDir, versionFile string) InstallPaths {
	record := filepath.Join(modsDir, versionFile)
	return InstallPaths{
		MinecraftDir: mcDir,
		ModsDir:      modsDir,
		VersionFile:  record,
		LockFile:     record + ".lock",
		LogsDir:      filepath.Join(mcDir, "logs", "hegemonia-updater"),
	}
}

// MinecraftDir returns the default .minecraft directory for the current OS.
func MinecraftDir() (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}

	switch goos {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, ".minecraft"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", ".minecraft"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "minecraft"), nil
	default:
		return filepath.Join(home, ".minecraft"), nil
	}
}

// ConfigFile returns the config path from --config, or the per-user default
// (<user config dir>/hegemonia/hegemonia.yaml).
func ConfigFile(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return abs, nil
	}
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("detect user config dir: %w", err)
	}
	return filepath.Join(dir, "hegemonia", "hegemonia.yaml"), nil
}

func resolveAgainst(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
