package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVersion is reported when nothing has been installed yet.
const DefaultVersion = "0.0.0"

// Record is the durable marker of the last verified install.
type Record struct {
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// Status explains where a loaded Record came from.
type Status int

const (
	// StatusLoaded means the record was read and parsed.
	StatusLoaded Status = iota
	// StatusMissing means no record exists yet.
	StatusMissing
	// StatusCorrupt means the file exists but could not be read or parsed.
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusMissing:
		return "missing"
	case StatusCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Default returns the sentinel record for "never installed".
func Default() Record {
	return Record{Version: DefaultVersion, Hash: ""}
}

// Load reads the record at path. A missing or corrupt file yields Default()
// and never an error; the Status tells the two cases apart.
func Load(path string) (Record, Status) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), StatusMissing
		}
		return Default(), StatusCorrupt
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Default(), StatusCorrupt
	}
	if strings.TrimSpace(rec.Version) == "" {
		return Default(), StatusCorrupt
	}
	return rec, StatusLoaded
}

// Save overwrites the record at path. The write goes through a sibling temp
// file and a rename so a crash never leaves a half-written record.
func Save(path string, rec Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare record directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write record temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close record temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}
