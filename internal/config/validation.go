package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration and returns structured findings.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateAPI()...)
	results = append(results, c.validateMod()...)
	results = append(results, c.validatePaths()...)
	results = append(results, c.validateDurations()...)
	return results
}

// Err joins every error-level finding into a single error, or returns nil.
func (c Config) Err() error {
	var errs []error
	for _, r := range c.Validate() {
		if r.Level == "error" {
			errs = append(errs, errors.New(r.Message))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

func (c Config) validateAPI() []ValidationResult {
	base := strings.TrimSpace(c.API.Base)
	if base == "" {
		return []ValidationResult{{Level: "error", Message: "api.base must not be empty"}}
	}
	u, err := url.Parse(base)
	if err != nil {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("api.base %q is not a valid URL: %v", base, err)}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("api.base %q must use http or https", base)}}
	}
	if u.Host == "" {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("api.base %q has no host", base)}}
	}
	if u.Scheme == "http" {
		return []ValidationResult{{Level: "warning", Message: "api.base uses plain http; downloads are only size-checked unless the manifest declares sha256"}}
	}
	return nil
}

func (c Config) validateMod() []ValidationResult {
	var results []ValidationResult
	if strings.TrimSpace(c.Mod.ID) == "" {
		results = append(results, ValidationResult{Level: "error", Message: "mod.id must not be empty"})
	}
	if strings.ContainsAny(c.ArtifactPrefix(), `/\*?[`) {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("mod.artifact_prefix %q must be a plain file name prefix", c.ArtifactPrefix()),
		})
	}
	return results
}

func (c Config) validatePaths() []ValidationResult {
	name := strings.TrimSpace(c.Paths.VersionFile)
	switch {
	case name == "":
		return []ValidationResult{{Level: "error", Message: "paths.version_file must not be empty"}}
	case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("paths.version_file %q must be a bare file name", name)}}
	}
	return nil
}

func (c Config) validateDurations() []ValidationResult {
	var results []ValidationResult
	fields := []struct {
		key   string
		value string
	}{
		{"api.manifest_timeout", c.API.ManifestTimeout},
		{"api.download_timeout", c.API.DownloadTimeout},
		{"lock.timeout", c.Lock.Timeout},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(strings.TrimSpace(f.value))
		if err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s %q is not a duration (e.g. 10s, 2m)", f.key, f.value),
			})
			continue
		}
		if d <= 0 {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s must be positive", f.key),
			})
		}
	}
	return results
}
