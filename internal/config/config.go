package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBase is the launcher API the updater talks to when nothing else is configured.
const DefaultAPIBase = "http://51.75.31.173:3001/api"

// Config captures the updater configuration.
type Config struct {
	Version int         `yaml:"version"`
	API     APIConfig   `yaml:"api"`
	Mod     ModConfig   `yaml:"mod"`
	Paths   PathsConfig `yaml:"paths"`
	Lock    LockConfig  `yaml:"lock"`
}

// APIConfig describes the remote modpack API.
type APIConfig struct {
	Base            string `yaml:"base"`
	ManifestTimeout string `yaml:"manifest_timeout"`
	DownloadTimeout string `yaml:"download_timeout"`
	UserAgent       string `yaml:"user_agent"`
}

// ModConfig identifies the mod kept in sync and how its artifacts are named.
type ModConfig struct {
	ID             string `yaml:"id"`
	ArtifactPrefix string `yaml:"artifact_prefix,omitempty"`
}

// PathsConfig overrides install locations. Empty values resolve per OS.
type PathsConfig struct {
	MinecraftDir string `yaml:"minecraft_dir,omitempty"`
	ModsDir      string `yaml:"mods_dir,omitempty"`
	VersionFile  string `yaml:"version_file"`
}

// LockConfig controls how long a run waits for a concurrent run to finish.
type LockConfig struct {
	Timeout string `yaml:"timeout"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		API: APIConfig{
			Base:            DefaultAPIBase,
			ManifestTimeout: "10s",
			DownloadTimeout: "60s",
			UserAgent:       "Hegemonia-Updater/1.0",
		},
		Mod: ModConfig{
			ID: "hegemonia-client",
		},
		Paths: PathsConfig{
			VersionFile: ".hegemonia-version",
		},
		Lock: LockConfig{
			Timeout: "30s",
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	contents, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg.ApplyDefaults()
	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.API.Base) == "" {
		c.API.Base = defaults.API.Base
	}
	c.API.Base = strings.TrimRight(strings.TrimSpace(c.API.Base), "/")
	if c.API.ManifestTimeout == "" {
		c.API.ManifestTimeout = defaults.API.ManifestTimeout
	}
	if c.API.DownloadTimeout == "" {
		c.API.DownloadTimeout = defaults.API.DownloadTimeout
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaults.API.UserAgent
	}
	if strings.TrimSpace(c.Mod.ID) == "" {
		c.Mod.ID = defaults.Mod.ID
	}
	if c.Paths.VersionFile == "" {
		c.Paths.VersionFile = defaults.Paths.VersionFile
	}
	if c.Lock.Timeout == "" {
		c.Lock.Timeout = defaults.Lock.Timeout
	}
}

// ArtifactPrefix returns the file name prefix shared by every artifact of the
// configured mod. It defaults to the mod id.
func (c Config) ArtifactPrefix() string {
	if p := strings.TrimSpace(c.Mod.ArtifactPrefix); p != "" {
		return p
	}
	return strings.TrimSpace(c.Mod.ID)
}

// ManifestTimeout returns the bound on the manifest request.
func (c Config) ManifestTimeout() time.Duration {
	return durationOr(c.API.ManifestTimeout, 10*time.Second)
}

// DownloadTimeout returns the bound on a single artifact download.
func (c Config) DownloadTimeout() time.Duration {
	return durationOr(c.API.DownloadTimeout, 60*time.Second)
}

// LockTimeout returns how long to wait for the install lock.
func (c Config) LockTimeout() time.Duration {
	return durationOr(c.Lock.Timeout, 30*time.Second)
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
