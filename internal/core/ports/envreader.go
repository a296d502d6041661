package ports

import "go.trai.ch/grove/internal/core/domain"

// EnvironmentDocs is one environment's on-disk state: the parsed documents
// plus the raw bytes they were parsed from, which fingerprinting hashes.
type EnvironmentDocs struct {
	Manifest    *domain.Manifest
	Lockfile    *domain.Lockfile
	ManifestRaw []byte
	LockfileRaw []byte
}

// EnvironmentReader reads a local environment's manifest and lockfile.
// The lockfile fields are nil for an environment that was never locked.
type EnvironmentReader interface {
	ReadEnvironment(dir string) (EnvironmentDocs, error)

	// ParseDocuments decodes manifest and lockfile bytes obtained
	// elsewhere, e.g. pulled from the remote hub. lockfileRaw may be nil.
	ParseDocuments(manifestRaw, lockfileRaw []byte) (EnvironmentDocs, error)
}
