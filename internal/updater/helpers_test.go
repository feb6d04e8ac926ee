package updater

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hegemonia/internal/manifest"
	"hegemonia/internal/state"
)

// fakeAPI serves a manifest and mod files the way the launcher API does.
type fakeAPI struct {
	srv          *httptest.Server
	manifestHits atomic.Int32
	downloadHits atomic.Int32
	mu           sync.Mutex
	mods         []manifest.Mod
	files        map[string][]byte
	manifestCode int
	downloadCode int
}

func newFakeAPI(t *testing.T, mods []manifest.Mod, files map[string][]byte) *fakeAPI {
	t.Helper()
	api := &fakeAPI{mods: mods, files: files, manifestCode: http.StatusOK, downloadCode: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/modpack/manifest", func(w http.ResponseWriter, r *http.Request) {
		api.manifestHits.Add(1)
		api.mu.Lock()
		defer api.mu.Unlock()
		if api.manifestCode != http.StatusOK {
			w.WriteHeader(api.manifestCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(manifest.Manifest{Version: "1.0.0", Mods: api.mods})
	})
	mux.HandleFunc("GET /api/modpack/mods/{name}", func(w http.ResponseWriter, r *http.Request) {
		api.downloadHits.Add(1)
		api.mu.Lock()
		defer api.mu.Unlock()
		if api.downloadCode != http.StatusOK {
			w.WriteHeader(api.downloadCode)
			return
		}
		data, ok := api.files[r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/java-archive")
		_, _ = w.Write(data)
	})

	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) base() string {
	return a.srv.URL + "/api"
}

func newTestSync(t *testing.T, apiBase, modsDir string, opts ...Option) *Synchronizer {
	t.Helper()
	s, err := New(Config{
		APIBase:         apiBase,
		ModID:           "hegemonia-client",
		ModsDir:         modsDir,
		ManifestTimeout: 2 * time.Second,
		DownloadTimeout: 5 * time.Second,
		LockTimeout:     time.Second,
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func payload(n int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, n)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// installed sets up mods dir with an artifact and a matching record.
func installed(t *testing.T, dir, fileName, version string, data []byte) {
	t.Helper()
	writeFile(t, filepath.Join(dir, fileName), data)
	if err := state.Save(filepath.Join(dir, ".hegemonia-version"), state.Record{Version: version, Hash: sha256Hex(data)}); err != nil {
		t.Fatal(err)
	}
}

// snapshot maps every file name in dir to its contents.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out[e.Name()] = string(data)
	}
	return out
}

func sameSnapshot(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// recordingReporter captures phases and the last progress update.
type recordingReporter struct {
	mu       sync.Mutex
	phases   []Phase
	messages []string
	written  int64
	total    int64
	updates  int
}

func (r *recordingReporter) Phase(p Phase, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, p)
	r.messages = append(r.messages, msg)
}

func (r *recordingReporter) Progress(written, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written, r.total = written, total
	r.updates++
}

func (r *recordingReporter) saw(p Phase) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.phases {
		if got == p {
			return true
		}
	}
	return false
}
