// Package manifest fetches and describes the modpack manifest published by
// the launcher API at {api_base}/modpack/manifest.
//
// A fetch is a single bounded attempt. Every failure (transport error,
// timeout, unexpected status, malformed body) wraps ErrUnreachable so callers
// can degrade to the existing install instead of failing the run.
package manifest
