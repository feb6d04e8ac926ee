package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. HEGEMONIA_API_BASE.
const EnvPrefix = "HEGEMONIA"

// envKeys maps viper keys to the fields they override.
var envKeys = map[string]func(c *Config) *string{
	"api.base":             func(c *Config) *string { return &c.API.Base },
	"api.manifest_timeout": func(c *Config) *string { return &c.API.ManifestTimeout },
	"api.download_timeout": func(c *Config) *string { return &c.API.DownloadTimeout },
	"api.user_agent":       func(c *Config) *string { return &c.API.UserAgent },
	"mod.id":               func(c *Config) *string { return &c.Mod.ID },
	"mod.artifact_prefix":  func(c *Config) *string { return &c.Mod.ArtifactPrefix },
	"paths.minecraft_dir":  func(c *Config) *string { return &c.Paths.MinecraftDir },
	"paths.mods_dir":       func(c *Config) *string { return &c.Paths.ModsDir },
	"paths.version_file":   func(c *Config) *string { return &c.Paths.VersionFile },
	"lock.timeout":         func(c *Config) *string { return &c.Lock.Timeout },
}

// ApplyEnv overrides configuration values from HEGEMONIA_* environment
// variables. Dots in keys become underscores (api.base -> HEGEMONIA_API_BASE).
func ApplyEnv(c *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, field := range envKeys {
		if !v.IsSet(key) {
			continue
		}
		value := strings.TrimSpace(v.GetString(key))
		if value == "" {
			continue
		}
		*field(c) = value
	}
	c.API.Base = strings.TrimRight(c.API.Base, "/")
}
