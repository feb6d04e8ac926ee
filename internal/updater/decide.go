package updater

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"hegemonia/internal/manifest"
	"hegemonia/internal/state"
)

// Reason names why an update is or is not required.
type Reason string

const (
	ReasonMissing  Reason = "missing"
	ReasonVersion  Reason = "version"
	ReasonSize     Reason = "size"
	ReasonForced   Reason = "forced"
	ReasonUpToDate Reason = "up-to-date"
)

type (
	// FileInfo is the part of the local artifact the decision looks at.
	FileInfo struct {
		Exists bool  `json:"exists"`
		Size   int64 `json:"size"`
	}

	// Decision is the outcome of comparing local state with a descriptor.
	Decision struct {
		Update bool   `json:"update"`
		Reason Reason `json:"reason"`
		Forced bool   `json:"forced,omitempty"`
	}
)

// StatArtifact inspects the artifact at path. A directory at that path counts
// as missing.
func StatArtifact(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, nil
		}
		return FileInfo{}, fmt.Errorf("stat artifact: %w", err)
	}
	if !info.Mode().IsRegular() {
		return FileInfo{}, nil
	}
	return FileInfo{Exists: true, Size: info.Size()}, nil
}

// Decide applies the update rules in order, stopping at the first that
// holds: artifact missing, recorded version differs, artifact size differs.
// Versions compare by exact string equality. force requests an update even
// when everything matches.
func Decide(artifact FileInfo, rec state.Record, mod manifest.Mod, force bool) Decision {
	var reason Reason
	switch {
	case !artifact.Exists:
		reason = ReasonMissing
	case rec.Version != mod.Version:
		reason = ReasonVersion
	case artifact.Size != mod.Size:
		reason = ReasonSize
	default:
		reason = ReasonUpToDate
	}

	if reason == ReasonUpToDate {
		if force {
			return Decision{Update: true, Reason: ReasonForced, Forced: true}
		}
		return Decision{Update: false, Reason: ReasonUpToDate}
	}
	return Decision{Update: true, Reason: reason, Forced: force}
}

// Direction labels a version change for display. It never affects whether
// an update happens.
func Direction(from, to string) string {
	a, b := canonicalVersion(from), canonicalVersion(to)
	if !semver.IsValid(a) || !semver.IsValid(b) {
		if from == to {
			return "reinstall"
		}
		return "change"
	}
	switch semver.Compare(a, b) {
	case -1:
		return "upgrade"
	case 1:
		return "downgrade"
	default:
		return "reinstall"
	}
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Describe renders a one-line status message for a decision.
func Describe(d Decision, rec state.Record, mod manifest.Mod) string {
	switch d.Reason {
	case ReasonMissing:
		return fmt.Sprintf("%s not installed, downloading v%s", mod.FileName, mod.Version)
	case ReasonVersion:
		return fmt.Sprintf("%s available: v%s -> v%s", Direction(rec.Version, mod.Version), rec.Version, mod.Version)
	case ReasonSize:
		return fmt.Sprintf("%s size differs from manifest, downloading again", mod.FileName)
	case ReasonForced:
		return fmt.Sprintf("forced reinstall of v%s", mod.Version)
	default:
		return fmt.Sprintf("v%s is up to date", mod.Version)
	}
}
