package manifest

import (
	"errors"
	"strings"
	"testing"
)

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	explicit := Mod{FileName: "a.jar", URL: "https://cdn.example.test/a.jar"}
	if got := explicit.DownloadURL("http://api.test/api"); got != "https://cdn.example.test/a.jar" {
		t.Errorf("expected explicit url, got %q", got)
	}

	served := Mod{FileName: "sodium-fabric-0.5.8+mc1.20.4.jar"}
	got := served.DownloadURL("http://api.test/api/")
	want := "http://api.test/api/modpack/mods/sodium-fabric-0.5.8+mc1.20.4.jar"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	spaced := Mod{FileName: "my mod.jar"}
	if got := spaced.DownloadURL("http://api.test"); !strings.HasSuffix(got, "/my%20mod.jar") {
		t.Errorf("expected escaped file name, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Mod{ID: "hegemonia-client", Version: "1.0.0", FileName: "hegemonia-client-1.0.0.jar", Size: 10}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(m *Mod)
	}{
		{"empty file name", func(m *Mod) { m.FileName = "" }},
		{"traversal", func(m *Mod) { m.FileName = "../evil.jar" }},
		{"dot", func(m *Mod) { m.FileName = "." }},
		{"separator", func(m *Mod) { m.FileName = "sub/evil.jar" }},
		{"backslash", func(m *Mod) { m.FileName = `sub\evil.jar` }},
		{"no version", func(m *Mod) { m.Version = "" }},
		{"negative size", func(m *Mod) { m.Size = -1 }},
		{"bad hash", func(m *Mod) { m.SHA256 = "xyz" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidMod) {
				t.Fatalf("expected ErrInvalidMod, got %v", err)
			}
		})
	}
}

func TestFindOnNilManifest(t *testing.T) {
	t.Parallel()

	var m *Manifest
	if _, ok := m.Find("x"); ok {
		t.Fatal("expected no match on nil manifest")
	}
}
