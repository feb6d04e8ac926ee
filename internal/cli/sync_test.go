package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hegemonia/internal/logx"
	"hegemonia/internal/manifest"
	"hegemonia/internal/state"
	"hegemonia/internal/tui"
	"hegemonia/internal/updater"
)

func testFactory(apiBase, mods string) synchronizerFactory {
	return func(rep updater.Reporter) (*updater.Synchronizer, error) {
		return updater.New(updater.Config{
			APIBase:     apiBase,
			ModsDir:     mods,
			LockTimeout: time.Second,
		}, updater.WithLogger(logx.Discard()), updater.WithReporter(rep))
	}
}

func TestRunSyncPlainInstalls(t *testing.T) {
	artifact := bytes.Repeat([]byte{'h'}, 300)
	srv := newTestAPI(t, []manifest.Mod{testMod(300)}, artifact)
	mods := filepath.Join(t.TempDir(), "mods")

	var stdout, stderr bytes.Buffer
	result, err := runSync(context.Background(), syncParams{
		stdout:  &stdout,
		stderr:  &stderr,
		mode:    tui.ModePlain,
		newSync: testFactory(srv.URL+"/api", mods),
	})
	if err != nil {
		t.Fatalf("runSync: %v (stderr %q)", err, stderr.String())
	}
	if result.Outcome != updater.OutcomeInstalled {
		t.Fatalf("expected installed, got %s", result.Outcome)
	}

	out := stdout.String()
	for _, want := range []string{banner, "[*] Mods directory: " + mods, "[*] checking for updates", "[OK] Hegemonia v1.1.0 installed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(mods, testJar)); err != nil {
		t.Fatalf("artifact not installed: %v", err)
	}
}

func TestRunSyncJSONOffline(t *testing.T) {
	srv := newTestAPI(t, nil, nil)
	srv.Close()

	var stdout bytes.Buffer
	_, err := runSync(context.Background(), syncParams{
		stdout:  &stdout,
		stderr:  &bytes.Buffer{},
		mode:    tui.ModeJSON,
		newSync: testFactory(srv.URL+"/api", t.TempDir()),
	})
	if err != nil {
		t.Fatalf("offline must succeed, got %v", err)
	}

	var report struct {
		OK            bool   `json:"ok"`
		Outcome       string `json:"outcome"`
		ManifestError string `json:"manifest_error"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("invalid json %q: %v", stdout.String(), err)
	}
	if !report.OK || report.Outcome != "offline" || report.ManifestError == "" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunSyncJSONFailure(t *testing.T) {
	srv := newTestAPI(t, []manifest.Mod{}, nil)

	var stdout bytes.Buffer
	_, err := runSync(context.Background(), syncParams{
		stdout:  &stdout,
		stderr:  &bytes.Buffer{},
		mode:    tui.ModeJSON,
		newSync: testFactory(srv.URL+"/api", t.TempDir()),
	})
	if !errors.Is(err, updater.ErrModNotInManifest) {
		t.Fatalf("expected ErrModNotInManifest, got %v", err)
	}

	var report syncReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if report.OK || !strings.Contains(report.Error, "mod not in manifest") {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSyncCommandExitCodes(t *testing.T) {
	t.Run("installed", func(t *testing.T) {
		artifact := bytes.Repeat([]byte{'x'}, 64)
		srv := newTestAPI(t, []manifest.Mod{testMod(64)}, artifact)
		cfgFile, mods := testInstall(t, srv.URL+"/api")

		stdout, _, err := execute(t, "sync", "--config", cfgFile, "--no-progress")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !strings.Contains(stdout, "installed") {
			t.Fatalf("unexpected output %q", stdout)
		}
		if _, err := os.Stat(filepath.Join(mods, ".hegemonia-version")); err != nil {
			t.Fatal("version record missing")
		}
		logs, _ := os.ReadDir(filepath.Join(filepath.Dir(mods), "logs", "hegemonia-updater"))
		if len(logs) != 1 {
			t.Fatalf("expected one run log, got %d", len(logs))
		}
	})

	t.Run("offline exits zero", func(t *testing.T) {
		srv := newTestAPI(t, nil, nil)
		srv.Close()
		cfgFile, _ := testInstall(t, srv.URL+"/api")

		if _, _, err := execute(t, "--config", cfgFile, "--json"); err != nil {
			t.Fatalf("offline run must exit 0, got %v", err)
		}
	})

	t.Run("size mismatch exits one", func(t *testing.T) {
		srv := newTestAPI(t, []manifest.Mod{testMod(64)}, []byte("short"))
		cfgFile, mods := testInstall(t, srv.URL+"/api")

		_, stderr, err := execute(t, "sync", "--config", cfgFile, "--no-progress", "--mods-dir", mods)
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 1 {
			t.Fatalf("expected exit code 1, got %v", err)
		}
		if !errors.Is(err, updater.ErrDownloadFailed) {
			t.Fatalf("expected download failure, got %v", err)
		}
		if !strings.Contains(stderr, "size mismatch") {
			t.Fatalf("expected failure on stderr, got %q", stderr)
		}
	})

	t.Run("invalid config exits one", func(t *testing.T) {
		cfgFile, _ := testInstall(t, "ftp://nowhere")

		_, _, err := execute(t, "sync", "--config", cfgFile)
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 1 {
			t.Fatalf("expected exit code 1, got %v", err)
		}
	})
}

func TestWriteSyncSummary(t *testing.T) {
	var buf bytes.Buffer
	writeSyncSummary(&buf, updater.Result{
		Outcome:    updater.OutcomeInstalled,
		Record:     state.Record{Version: "1.1.0"},
		Downloaded: 2048,
		Pruned: updater.PruneResult{
			Removed: []string{"hegemonia-client-1.0.0.jar"},
			Failed:  []updater.PruneFailure{{Name: "hegemonia-client-0.9.jar", Error: "in use"}},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "removed old version: hegemonia-client-1.0.0.jar") {
		t.Errorf("missing removed line in %q", out)
	}
	if !strings.Contains(out, "could not remove hegemonia-client-0.9.jar: in use") {
		t.Errorf("missing failure line in %q", out)
	}
	if !strings.Contains(out, "v1.1.0 installed (2.0 KiB)") {
		t.Errorf("missing size in %q", out)
	}
}
