package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"hegemonia/internal/manifest"
)

// chunkSize bounds the copy buffer so memory use does not depend on the
// artifact size.
const chunkSize = 32 << 10

// download is an accepted temporary artifact.
type download struct {
	path    string
	written int64
	sha256  string
}

// download streams the artifact of mod into <mods_dir>/<file_name>.tmp and
// gates it on size and declared sha256. On any failure the temp file is gone
// when it returns.
func (s *Synchronizer) download(ctx context.Context, mod manifest.Mod) (dl download, err error) {
	tmpPath := filepath.Join(s.cfg.ModsDir, mod.TempName())
	src := mod.DownloadURL(s.cfg.APIBase)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return download{}, fmt.Errorf("%w: create request: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return download{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return download{}, fmt.Errorf("%w: %s: unexpected status %s", ErrDownloadFailed, src, resp.Status)
	}

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return download{}, fmt.Errorf("%w: create temp file: %w", ErrDownloadFailed, err)
	}
	accepted := false
	defer func() {
		if !accepted {
			_ = os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	pw := &progressWriter{w: io.MultiWriter(f, h), total: mod.Size, report: s.reporter.Progress}
	s.reporter.Progress(0, mod.Size)

	// One byte past the declared size is enough to detect an oversized body.
	body := io.LimitReader(resp.Body, mod.Size+1)
	written, err := io.CopyBuffer(pw, body, make([]byte, chunkSize))
	if err != nil {
		f.Close()
		return download{}, fmt.Errorf("%w: write temp file: %w", ErrDownloadFailed, err)
	}
	if err := f.Close(); err != nil {
		return download{}, fmt.Errorf("%w: close temp file: %w", ErrDownloadFailed, err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return download{}, fmt.Errorf("%w: stat temp file: %w", ErrDownloadFailed, err)
	}
	if info.Size() != mod.Size {
		return download{}, &SizeMismatchError{FileName: mod.FileName, Expected: mod.Size, Got: info.Size()}
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if err := verifyHash(mod.FileName, mod.SHA256, sum); err != nil {
		return download{}, err
	}

	accepted = true
	return download{path: tmpPath, written: written, sha256: sum}, nil
}

// progressWriter forwards writes and reports the running byte count. It must
// not implement io.ReaderFrom or CopyBuffer would bypass the buffer.
type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	report  func(written, total int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.report(p.written, p.total)
	return n, err
}
