package updater

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"hegemonia/internal/logx"
)

func seedMods(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		writeFile(t, filepath.Join(dir, name), []byte(name))
	}
}

func TestPruneKeepsCurrentAndUnrelated(t *testing.T) {
	dir := t.TempDir()
	seedMods(t, dir,
		"hegemonia-client-1.0.0.jar",
		"hegemonia-client-0.9.0.jar",
		"hegemonia-client-1.1.0.jar",
		"hegemonia-client-1.2.0.jar.tmp",
		"hegemonia-client-notes.txt",
		"sodium-0.5.jar",
	)
	if err := os.Mkdir(filepath.Join(dir, "hegemonia-client-dir.jar"), 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := Prune(dir, "hegemonia-client", "hegemonia-client-1.1.0.jar", false, logx.Discard())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	want := []string{"hegemonia-client-0.9.0.jar", "hegemonia-client-1.0.0.jar"}
	if !reflect.DeepEqual(result.Removed, want) {
		t.Fatalf("expected removed %v, got %v", want, result.Removed)
	}

	for _, name := range []string{
		"hegemonia-client-1.1.0.jar",
		"hegemonia-client-1.2.0.jar.tmp",
		"hegemonia-client-notes.txt",
		"sodium-0.5.jar",
		"hegemonia-client-dir.jar",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
}

func TestPruneDryRun(t *testing.T) {
	dir := t.TempDir()
	seedMods(t, dir, "hegemonia-client-1.0.0.jar", "hegemonia-client-1.1.0.jar")
	before := snapshot(t, dir)

	result, err := Prune(dir, "hegemonia-client", "hegemonia-client-1.1.0.jar", true, logx.Discard())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if !result.DryRun || len(result.Removed) != 1 || result.Removed[0] != "hegemonia-client-1.0.0.jar" {
		t.Fatalf("unexpected dry-run result %+v", result)
	}
	if after := snapshot(t, dir); !sameSnapshot(before, after) {
		t.Fatal("dry run deleted files")
	}
}

func TestPruneSkipsUndeletable(t *testing.T) {
	dir := t.TempDir()
	seedMods(t, dir, "hegemonia-client-0.8.0.jar", "hegemonia-client-0.9.0.jar", "hegemonia-client-1.0.0.jar")

	orig := removeFile
	removeFile = func(path string) error {
		if filepath.Base(path) == "hegemonia-client-0.8.0.jar" {
			return errors.New("file in use")
		}
		return orig(path)
	}
	t.Cleanup(func() { removeFile = orig })

	result, err := Prune(dir, "hegemonia-client", "hegemonia-client-1.0.0.jar", false, logx.Discard())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].Name != "hegemonia-client-0.8.0.jar" || result.Failed[0].Error != "file in use" {
		t.Fatalf("unexpected failures %+v", result.Failed)
	}
	if len(result.Removed) != 1 || result.Removed[0] != "hegemonia-client-0.9.0.jar" {
		t.Fatalf("expected the deletable file to be removed, got %v", result.Removed)
	}
}

func TestPruneMissingDir(t *testing.T) {
	if _, err := Prune(filepath.Join(t.TempDir(), "absent"), "hegemonia-client", "", false, logx.Discard()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
