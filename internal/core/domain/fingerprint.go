package domain

import (
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes an environment's manifest and lockfile bytes into the
// change-detection token cached per include. It changes exactly when either
// document changes.
func Fingerprint(manifest, lockfile []byte) string {
	h := xxhash.New()
	_, _ = h.Write(manifest)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(lockfile)
	return fmt.Sprintf("%016x", h.Sum64())
}

// HashManifest fingerprints a manifest document alone. The lock engine
// records it in the lockfile so activation can detect manifest drift.
func HashManifest(manifest []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(manifest))
}

// EnvID derives a stable identity for an environment from its absolute
// path. Activations of the same environment share one registry keyed by it.
func EnvID(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(abs))
}
