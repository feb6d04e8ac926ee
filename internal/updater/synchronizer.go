package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"hegemonia/internal/config"
	"hegemonia/internal/logx"
	"hegemonia/internal/manifest"
	"hegemonia/internal/paths"
	"hegemonia/internal/state"
)

// Outcome summarises a run.
type Outcome string

const (
	// OutcomeOffline means the manifest could not be fetched and the existing
	// install was left as is. It is a success.
	OutcomeOffline Outcome = "offline"
	// OutcomeUpToDate means nothing needed downloading.
	OutcomeUpToDate Outcome = "up-to-date"
	// OutcomeInstalled means a new artifact was downloaded and recorded.
	OutcomeInstalled Outcome = "installed"
	// OutcomeUpdateAvailable is only returned by Check.
	OutcomeUpdateAvailable Outcome = "update-available"
)

type (
	// Config is everything a Synchronizer needs to know about one install.
	Config struct {
		APIBase         string
		ModID           string
		ArtifactPrefix  string
		ModsDir         string
		VersionFile     string
		LockFile        string
		UserAgent       string
		ManifestTimeout time.Duration
		DownloadTimeout time.Duration
		LockTimeout     time.Duration
		Force           bool
	}

	// ManifestSource fetches the current manifest.
	ManifestSource interface {
		Fetch(ctx context.Context) (*manifest.Manifest, error)
	}

	// Option configures a Synchronizer during construction.
	Option func(*Synchronizer)

	// Synchronizer runs the update pipeline for one mod in one mods directory.
	Synchronizer struct {
		cfg        Config
		httpClient *http.Client
		manifests  ManifestSource
		logger     *log.Logger
		reporter   Reporter
	}

	// Result describes what a run observed and did.
	Result struct {
		Outcome        Outcome      `json:"outcome"`
		ModsDir        string       `json:"mods_dir"`
		Mod            manifest.Mod `json:"mod,omitzero"`
		Previous       state.Record `json:"previous"`
		PreviousStatus string       `json:"previous_status"`
		Record         state.Record `json:"record"`
		Artifact       FileInfo     `json:"artifact"`
		Decision       Decision     `json:"decision,omitzero"`
		Downloaded     int64        `json:"downloaded,omitempty"`
		LeftoverTemp   bool         `json:"leftover_temp,omitempty"`
		Pruned         PruneResult  `json:"pruned,omitzero"`
		ManifestError  string       `json:"manifest_error,omitempty"`
	}
)

// WithHTTPClient sets the client used for the manifest and the download.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synchronizer) {
		s.httpClient = c
	}
}

// WithLogger sets the structured run logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReporter sets the receiver of phase and progress updates.
func WithReporter(r Reporter) Option {
	return func(s *Synchronizer) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithManifestClient replaces the HTTP manifest client.
func WithManifestClient(m ManifestSource) Option {
	return func(s *Synchronizer) {
		s.manifests = m
	}
}

// ConfigFrom builds a Config from the loaded file configuration and the
// resolved install paths.
func ConfigFrom(cfg config.Config, pp paths.InstallPaths, force bool) Config {
	return Config{
		APIBase:         cfg.API.Base,
		ModID:           cfg.Mod.ID,
		ArtifactPrefix:  cfg.ArtifactPrefix(),
		ModsDir:         pp.ModsDir,
		VersionFile:     filepath.Base(pp.VersionFile),
		LockFile:        pp.LockFile,
		UserAgent:       cfg.API.UserAgent,
		ManifestTimeout: cfg.ManifestTimeout(),
		DownloadTimeout: cfg.DownloadTimeout(),
		LockTimeout:     cfg.LockTimeout(),
		Force:           force,
	}
}

// New creates a Synchronizer. Zero timeouts and names fall back to the
// defaults of config.Default.
func New(cfg Config, opts ...Option) (*Synchronizer, error) {
	cfg.applyDefaults()
	if strings.TrimSpace(cfg.ModsDir) == "" {
		return nil, errors.New("updater: mods directory is required")
	}
	if strings.TrimSpace(cfg.APIBase) == "" {
		return nil, errors.New("updater: api base is required")
	}

	s := &Synchronizer{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     logx.Discard(),
		reporter:   nopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.manifests == nil {
		s.manifests = manifest.NewClient(cfg.APIBase,
			manifest.WithHTTPClient(s.httpClient),
			manifest.WithUserAgent(cfg.UserAgent),
			manifest.WithTimeout(cfg.ManifestTimeout),
		)
	}
	return s, nil
}

func (c *Config) applyDefaults() {
	d := config.Default()
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.ModID == "" {
		c.ModID = d.Mod.ID
	}
	if c.ArtifactPrefix == "" {
		c.ArtifactPrefix = c.ModID
	}
	if c.VersionFile == "" {
		c.VersionFile = d.Paths.VersionFile
	}
	if c.UserAgent == "" {
		c.UserAgent = d.API.UserAgent
	}
	if c.ManifestTimeout <= 0 {
		c.ManifestTimeout = d.ManifestTimeout()
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = d.DownloadTimeout()
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = d.LockTimeout()
	}
}

// Config returns the effective configuration.
func (s *Synchronizer) Config() Config { return s.cfg }

func (s *Synchronizer) versionPath() string {
	return filepath.Join(s.cfg.ModsDir, s.cfg.VersionFile)
}

func (s *Synchronizer) lockPath() string {
	if s.cfg.LockFile != "" {
		return s.cfg.LockFile
	}
	return s.versionPath() + ".lock"
}

func (s *Synchronizer) artifactPath(mod manifest.Mod) string {
	return filepath.Join(s.cfg.ModsDir, mod.FileName)
}

// Run executes the full pipeline: lock, fetch, find, read record, decide,
// download, verify, finalize. An unreachable manifest is not an error; the
// result reports OutcomeOffline and nothing on disk changes.
func (s *Synchronizer) Run(ctx context.Context) (Result, error) {
	result := Result{ModsDir: s.cfg.ModsDir}

	if err := os.MkdirAll(s.cfg.ModsDir, 0o755); err != nil {
		return result, fmt.Errorf("create mods directory: %w", err)
	}

	s.reporter.Phase(PhaseLock, "acquiring mods directory lock")
	release, err := acquireLock(ctx, s.lockPath(), s.cfg.LockTimeout, s.logger)
	if err != nil {
		s.logger.Error("lock failed", "path", s.lockPath(), "err", err)
		return result, err
	}
	defer release()

	mod, prev, decision, offline, err := s.evaluate(ctx, &result)
	if err != nil || offline {
		return result, err
	}
	if err := s.removeLeftoverTemp(mod, &result); err != nil {
		return result, err
	}
	if !decision.Update {
		result.Outcome = OutcomeUpToDate
		result.Record = prev
		s.reporter.Phase(PhaseDone, Describe(decision, prev, mod))
		s.logger.Info("up to date", "version", mod.Version, "file", mod.FileName)
		return result, nil
	}

	s.reporter.Phase(PhaseDownload, fmt.Sprintf("downloading %s (%d bytes)", mod.FileName, mod.Size))
	s.logger.Info("download started", "url", mod.DownloadURL(s.cfg.APIBase), "size", mod.Size)
	dl, err := s.download(ctx, mod)
	if err != nil {
		s.logger.Error("download failed", "file", mod.FileName, "err", err)
		return result, err
	}
	result.Downloaded = dl.written
	s.reporter.Phase(PhaseVerify, fmt.Sprintf("verified %d bytes", dl.written))
	s.logger.Info("download verified", "bytes", dl.written, "sha256", dl.sha256)

	rec, pruned, err := s.finalize(dl, mod)
	result.Pruned = pruned
	if err != nil {
		s.logger.Error("finalize failed", "file", mod.FileName, "err", err)
		return result, err
	}

	result.Outcome = OutcomeInstalled
	result.Record = rec
	result.Artifact = FileInfo{Exists: true, Size: mod.Size}
	s.reporter.Phase(PhaseDone, fmt.Sprintf("v%s installed", mod.Version))
	s.logger.Info("installed", "version", rec.Version, "hash", rec.Hash)
	return result, nil
}

// Check fetches the manifest and reports whether Run would download. It
// takes no lock and never writes.
func (s *Synchronizer) Check(ctx context.Context) (Result, error) {
	result := Result{ModsDir: s.cfg.ModsDir}

	mod, prev, decision, offline, err := s.evaluate(ctx, &result)
	if err != nil || offline {
		return result, err
	}

	result.Record = prev
	if decision.Update {
		result.Outcome = OutcomeUpdateAvailable
	} else {
		result.Outcome = OutcomeUpToDate
	}
	s.reporter.Phase(PhaseDone, Describe(decision, prev, mod))
	return result, nil
}

// evaluate covers the read-only part shared by Run and Check.
func (s *Synchronizer) evaluate(ctx context.Context, result *Result) (manifest.Mod, state.Record, Decision, bool, error) {
	s.reporter.Phase(PhaseManifest, "checking for updates")
	m, err := s.manifests.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, manifest.ErrUnreachable) {
			return manifest.Mod{}, state.Record{}, Decision{}, false, err
		}
		s.logger.Warn("manifest unreachable, keeping current install", "err", err)
		s.reporter.Phase(PhaseDone, "API unreachable, keeping the current install")
		result.Outcome = OutcomeOffline
		result.ManifestError = err.Error()
		return manifest.Mod{}, state.Record{}, Decision{}, true, nil
	}

	mod, err := s.findMod(m)
	if err != nil {
		return manifest.Mod{}, state.Record{}, Decision{}, false, err
	}
	result.Mod = mod

	s.reporter.Phase(PhaseLocal, "reading local version record")
	prev, status := state.Load(s.versionPath())
	result.Previous = prev
	result.PreviousStatus = status.String()
	if status == state.StatusCorrupt {
		s.logger.Warn("version record unreadable, treating as not installed", "path", s.versionPath())
	}

	artifact, err := StatArtifact(s.artifactPath(mod))
	if err != nil {
		return manifest.Mod{}, state.Record{}, Decision{}, false, err
	}
	result.Artifact = artifact

	decision := Decide(artifact, prev, mod, s.cfg.Force)
	result.Decision = decision
	s.reporter.Phase(PhaseDecide, Describe(decision, prev, mod))
	s.logger.Info("decision",
		"update", decision.Update,
		"reason", decision.Reason,
		"local_version", prev.Version,
		"remote_version", mod.Version,
		"local_size", artifact.Size,
		"remote_size", mod.Size,
	)
	return mod, prev, decision, false, nil
}

// findMod returns the configured mod's descriptor once it is safe to install:
// a plain file name carrying the artifact prefix and the .jar suffix, so that
// prune recognises every installed version.
func (s *Synchronizer) findMod(m *manifest.Manifest) (manifest.Mod, error) {
	mod, ok := m.Find(s.cfg.ModID)
	if !ok {
		s.logger.Error("mod missing from manifest", "id", s.cfg.ModID, "mods", len(m.Mods))
		return manifest.Mod{}, fmt.Errorf("%w: %s", ErrModNotInManifest, s.cfg.ModID)
	}
	if err := mod.Validate(); err != nil {
		s.logger.Error("invalid mod descriptor", "id", s.cfg.ModID, "err", err)
		return manifest.Mod{}, fmt.Errorf("%w: %w", ErrModNotInManifest, err)
	}
	if !strings.HasPrefix(mod.FileName, s.cfg.ArtifactPrefix) || !strings.HasSuffix(mod.FileName, ".jar") {
		s.logger.Error("artifact name outside naming convention", "file", mod.FileName, "prefix", s.cfg.ArtifactPrefix)
		return manifest.Mod{}, fmt.Errorf("%w: file_name %q does not match %s*.jar",
			ErrModNotInManifest, mod.FileName, s.cfg.ArtifactPrefix)
	}
	return mod, nil
}

// removeLeftoverTemp deletes a temp file left behind by an interrupted run.
func (s *Synchronizer) removeLeftoverTemp(mod manifest.Mod, result *Result) error {
	tmpPath := filepath.Join(s.cfg.ModsDir, mod.TempName())
	ok, err := paths.FileExists(tmpPath)
	if err != nil || !ok {
		return nil
	}
	result.LeftoverTemp = true
	s.logger.Warn("removing temp file from an interrupted run", "path", tmpPath)
	s.reporter.Phase(PhaseDownload, fmt.Sprintf("removing %s left by an interrupted run", mod.TempName()))
	if err := os.Remove(tmpPath); err != nil {
		return fmt.Errorf("remove leftover temp file: %w", err)
	}
	return nil
}

// finalize installs an accepted download. The version record is written
// last, after the artifact is in place.
func (s *Synchronizer) finalize(dl download, mod manifest.Mod) (state.Record, PruneResult, error) {
	s.reporter.Phase(PhasePrune, "removing older versions")
	pruned, err := Prune(s.cfg.ModsDir, s.cfg.ArtifactPrefix, mod.FileName, false, s.logger)
	if err != nil {
		s.logger.Warn("prune skipped", "err", err)
	}

	canonical := s.artifactPath(mod)
	s.reporter.Phase(PhaseInstall, fmt.Sprintf("installing %s", mod.FileName))
	if err := os.Rename(dl.path, canonical); err != nil {
		_ = os.Remove(dl.path)
		return state.Record{}, pruned, fmt.Errorf("install artifact: %w", err)
	}

	hash, err := ComputeFileHash(canonical)
	if err != nil {
		return state.Record{}, pruned, err
	}

	rec := state.Record{Version: mod.Version, Hash: hash}
	s.reporter.Phase(PhaseRecord, "writing version record")
	if err := state.Save(s.versionPath(), rec); err != nil {
		return state.Record{}, pruned, fmt.Errorf("write version record: %w", err)
	}
	return rec, pruned, nil
}

// Prune removes stale artifacts under the mods directory lock. When keep is
// empty the current file name is taken from the manifest; with the manifest
// unreachable nothing is pruned and the error wraps manifest.ErrUnreachable.
// The kept file must already be installed, otherwise ErrKeepNotInstalled is
// returned and nothing is removed.
func (s *Synchronizer) Prune(ctx context.Context, keep string, dryRun bool) (PruneResult, error) {
	release, err := acquireLock(ctx, s.lockPath(), s.cfg.LockTimeout, s.logger)
	if err != nil {
		return PruneResult{}, err
	}
	defer release()

	if keep == "" {
		m, err := s.manifests.Fetch(ctx)
		if err != nil {
			return PruneResult{}, fmt.Errorf("resolve current artifact: %w", err)
		}
		mod, err := s.findMod(m)
		if err != nil {
			return PruneResult{}, err
		}
		keep = mod.FileName
	}
	if strings.ContainsAny(keep, `/\`) {
		return PruneResult{}, fmt.Errorf("keep %q must be a file name inside the mods directory", keep)
	}
	if ok, err := paths.FileExists(filepath.Join(s.cfg.ModsDir, keep)); err != nil || !ok {
		s.logger.Warn("refusing to prune", "keep", keep, "err", err)
		return PruneResult{}, fmt.Errorf("%w: %s", ErrKeepNotInstalled, keep)
	}

	s.reporter.Phase(PhasePrune, fmt.Sprintf("keeping %s", keep))
	result, err := Prune(s.cfg.ModsDir, s.cfg.ArtifactPrefix, keep, dryRun, s.logger)
	if err != nil {
		return result, err
	}
	s.logger.Info("prune finished", "keep", keep, "removed", len(result.Removed), "failed", len(result.Failed), "dry_run", dryRun)
	return result, nil
}

// Inspect reports the local install without touching the network.
func (s *Synchronizer) Inspect() (Status, error) {
	rec, status := state.Load(s.versionPath())
	st := Status{
		ModsDir:      s.cfg.ModsDir,
		VersionFile:  s.versionPath(),
		Record:       rec,
		RecordStatus: status.String(),
	}

	entries, err := os.ReadDir(s.cfg.ModsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read mods directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, s.cfg.ArtifactPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		switch {
		case strings.HasSuffix(name, ".jar"):
			st.Artifacts = append(st.Artifacts, ArtifactStatus{Name: name, Size: info.Size()})
		case strings.HasSuffix(name, ".jar.tmp"):
			st.LeftoverTemps = append(st.LeftoverTemps, name)
		}
	}
	if ok, _ := paths.FileExists(s.lockPath()); ok {
		st.Locked = true
	}
	return st, nil
}

type (
	// Status is the offline view of an install used by the status command.
	Status struct {
		ModsDir       string           `json:"mods_dir"`
		VersionFile   string           `json:"version_file"`
		Record        state.Record     `json:"record"`
		RecordStatus  string           `json:"record_status"`
		Artifacts     []ArtifactStatus `json:"artifacts"`
		LeftoverTemps []string         `json:"leftover_temps,omitempty"`
		Locked        bool             `json:"locked"`
	}

	// ArtifactStatus is one artifact file found in the mods directory.
	ArtifactStatus struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	}
)
