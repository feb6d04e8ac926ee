// Package updater keeps one mod artifact in a Minecraft mods directory in
// sync with the launcher API manifest.
//
// A run takes an exclusive lock on the mods directory, fetches the manifest,
// compares the remote descriptor with the local version record and artifact,
// and when needed streams the artifact to a temporary sibling file. The
// download is accepted only when its size (and declared sha256, if any)
// matches. Finalize prunes older artifacts, renames the temporary file into
// place, hashes it, and writes the version record last.
package updater
