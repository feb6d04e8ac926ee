package updater

import (
	"errors"
	"fmt"
)

var (
	// ErrModNotInManifest means the manifest was fetched but carries no usable
	// descriptor for the configured mod.
	ErrModNotInManifest = errors.New("mod not in manifest")

	// ErrDownloadFailed covers transport errors, bad statuses, write errors,
	// and failed verification of a downloaded artifact.
	ErrDownloadFailed = errors.New("download failed")

	// ErrChecksumMismatch indicates the computed SHA256 hash does not match
	// the hash declared by the manifest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrKeepNotInstalled means prune was asked to keep an artifact that is not
	// in the mods directory, which would leave no installed version behind.
	ErrKeepNotInstalled = errors.New("artifact to keep is not installed")

	// ErrLocked means another run held the mods directory lock for longer
	// than the lock timeout.
	ErrLocked = errors.New("mods directory locked by another run")
)

type (
	// SizeMismatchError reports a download whose byte length differs from
	// the declared size. It wraps ErrDownloadFailed.
	SizeMismatchError struct {
		FileName string
		Expected int64
		Got      int64
	}

	// ChecksumError provides details about a checksum verification failure.
	// It wraps both ErrChecksumMismatch and ErrDownloadFailed.
	ChecksumError struct {
		FileName string
		Expected string
		Got      string
	}
)

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %s: expected %d bytes, got %d", e.FileName, e.Expected, e.Got)
}

// Unwrap returns ErrDownloadFailed so callers can use errors.Is.
func (e *SizeMismatchError) Unwrap() error { return ErrDownloadFailed }

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.FileName, e.Expected, e.Got)
}

// Unwrap exposes both sentinels to errors.Is.
func (e *ChecksumError) Unwrap() []error {
	return []error{ErrChecksumMismatch, ErrDownloadFailed}
}
