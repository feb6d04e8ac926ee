package updater

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ComputeFileHash returns the lowercase hex SHA256 of the file at path.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyHash compares a computed digest with the declared one. An empty
// declared hash always passes.
func verifyHash(fileName, expected, got string) error {
	expected = strings.TrimSpace(expected)
	if expected == "" || strings.EqualFold(expected, got) {
		return nil
	}
	return &ChecksumError{
		FileName: fileName,
		Expected: strings.ToLower(expected),
		Got:      got,
	}
}
