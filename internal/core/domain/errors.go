package domain

import "go.trai.ch/zerr"

var (
	// ErrManifestNotFound is returned when an environment has no manifest.
	ErrManifestNotFound = zerr.New("manifest not found")

	// ErrManifestParse is returned for malformed or unknown manifest content.
	ErrManifestParse = zerr.New("failed to parse manifest")

	// ErrLockfileParse is returned for malformed lockfile content.
	ErrLockfileParse = zerr.New("failed to parse lockfile")

	// ErrResolutionFailed is returned when the catalog has no candidate for
	// an install entry. The offending install-ID is attached as metadata.
	ErrResolutionFailed = zerr.New("could not resolve package")

	// ErrLockContention is returned when the exclusive environment lock
	// could not be acquired within the timeout.
	ErrLockContention = zerr.New("environment is in use by another process")

	// ErrBuildFailed is returned when the external build system fails to
	// realize a lockfile. Previously published environment state survives.
	ErrBuildFailed = zerr.New("failed to build environment")

	// ErrRemoteSyncConflict is returned when a push is rejected because the
	// remote generation advanced since the last pull.
	ErrRemoteSyncConflict = zerr.New("remote environment has diverged")

	// ErrNotInstalled is returned when uninstalling an id that is not in
	// the manifest.
	ErrNotInstalled = zerr.New("package is not installed")

	// ErrAlreadyInstalled is returned when installing an id that is
	// already in the manifest.
	ErrAlreadyInstalled = zerr.New("package is already installed")

	// ErrIncludeNotFound is returned when an include name given to
	// 'include upgrade' does not match any include directive.
	ErrIncludeNotFound = zerr.New("no include with that name")

	// ErrGenerationNotFound is returned when pulling a generation that the
	// remote does not have.
	ErrGenerationNotFound = zerr.New("generation not found")

	// ErrUnsupportedPlatform is returned when a lockfile has no packages
	// for the platform being activated.
	ErrUnsupportedPlatform = zerr.New("environment is not locked for this platform")
)
