package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidMod indicates a manifest entry that cannot be installed safely.
var ErrInvalidMod = errors.New("invalid mod descriptor")

type (
	// Manifest lists the mods the server expects clients to run.
	Manifest struct {
		Version          string `json:"version,omitempty"`
		MinecraftVersion string `json:"minecraft_version,omitempty"`
		FabricVersion    string `json:"fabric_version,omitempty"`
		Mods             []Mod  `json:"mods"`
	}

	// Mod describes one downloadable artifact. Version is compared by exact
	// string equality, never by semantic ordering.
	Mod struct {
		ID       string `json:"id"`
		Name     string `json:"name,omitempty"`
		Version  string `json:"version"`
		FileName string `json:"file_name"`
		Size     int64  `json:"size"`
		URL      string `json:"url,omitempty"`
		SHA256   string `json:"sha256,omitempty"`
		Required bool   `json:"required,omitempty"`
	}
)

// Find returns the descriptor with the given id.
func (m *Manifest) Find(id string) (Mod, bool) {
	if m == nil {
		return Mod{}, false
	}
	for _, mod := range m.Mods {
		if mod.ID == id {
			return mod, true
		}
	}
	return Mod{}, false
}

// DownloadURL returns the explicit url when the manifest carries one, else the
// API's own mod endpoint for this file.
func (m Mod) DownloadURL(apiBase string) string {
	if u := strings.TrimSpace(m.URL); u != "" {
		return u
	}
	return strings.TrimRight(apiBase, "/") + "/modpack/mods/" + url.PathEscape(m.FileName)
}

// TempName is the in-flight download name for this artifact.
func (m Mod) TempName() string {
	return m.FileName + ".tmp"
}

// Validate rejects descriptors whose file name could escape the mods
// directory or whose size cannot be checked.
func (m Mod) Validate() error {
	name := m.FileName
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: %s has no file_name", ErrInvalidMod, m.ID)
	case name == "." || strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return fmt.Errorf("%w: %s file_name %q is not a plain file name", ErrInvalidMod, m.ID, name)
	case strings.TrimSpace(m.Version) == "":
		return fmt.Errorf("%w: %s has no version", ErrInvalidMod, m.ID)
	case m.Size < 0:
		return fmt.Errorf("%w: %s declares negative size %d", ErrInvalidMod, m.ID, m.Size)
	}
	if h := strings.TrimSpace(m.SHA256); h != "" && !isValidHexHash(h) {
		return fmt.Errorf("%w: %s sha256 %q is not a hex digest", ErrInvalidMod, m.ID, h)
	}
	return nil
}

// isValidHexHash checks if s is a valid 64-character hex-encoded SHA256 hash.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
