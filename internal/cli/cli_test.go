package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"hegemonia/internal/manifest"
)

const testJar = "hegemonia-client-1.1.0.jar"

// newTestAPI serves a manifest with one mod and its artifact.
func newTestAPI(t *testing.T, mods []manifest.Mod, artifact []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/modpack/manifest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(manifest.Manifest{Mods: mods})
	})
	mux.HandleFunc("GET /api/modpack/mods/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != testJar {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(artifact)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testMod(size int) manifest.Mod {
	return manifest.Mod{ID: "hegemonia-client", Version: "1.1.0", FileName: testJar, Size: int64(size)}
}

// testInstall points configuration at temp dirs and the given API.
func testInstall(t *testing.T, apiBase string) (cfgFile, mods string) {
	t.Helper()
	root := t.TempDir()
	mc := filepath.Join(root, "minecraft")
	mods = filepath.Join(mc, "mods")
	cfgFile = filepath.Join(root, "hegemonia.yaml")
	t.Setenv("HEGEMONIA_API_BASE", apiBase)
	t.Setenv("HEGEMONIA_PATHS_MINECRAFT_DIR", mc)
	t.Setenv("HEGEMONIA_LOCK_TIMEOUT", "1s")
	return cfgFile, mods
}

// execute runs the root command with args and captures output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func findCommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"sync", "check", "status", "prune", "config"} {
		findCommand(t, root, name)
	}
	for _, flag := range []string{"config", "mods-dir", "json", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
	for _, flag := range []string{"force", "no-progress"} {
		if findCommand(t, root, "sync").Flags().Lookup(flag) == nil {
			t.Errorf("missing sync flag --%s", flag)
		}
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := os.ErrPermission
	err := &ExitError{Code: 1, Err: inner}
	if err.Error() != inner.Error() {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if (&ExitError{Code: 3}).Error() != "exit status 3" {
		t.Fatal("expected exit status message without cause")
	}
}
