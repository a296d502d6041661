package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// GroveDirName is the name of the environment state directory.
	GroveDirName = ".grove"

	// EnvDirName is the subdirectory holding the manifest and lockfile.
	EnvDirName = "env"

	// RunDirName is the subdirectory holding published environment trees.
	RunDirName = "run"

	// ManifestFileName is the name of the manifest file.
	ManifestFileName = "manifest.toml"

	// LockfileFileName is the name of the lockfile.
	LockfileFileName = "manifest.lock"

	// MutationLockFileName is the lock file serializing manifest/lockfile
	// mutations for one environment.
	MutationLockFileName = "lock"

	// RegistryFileName is the per-environment activation registry file.
	RegistryFileName = "registry.json"

	// RemoteRefFileName records which hub environment this environment is
	// linked to and the last synced generation.
	RemoteRefFileName = "remote.json"

	// RegistryLockFileName is the lock file guarding the activation
	// registry, separate from the mutation lock.
	RegistryLockFileName = "registry.lock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// GroveDir returns the state directory for the environment at dir.
func GroveDir(dir string) string {
	return filepath.Join(dir, GroveDirName)
}

// ManifestPath returns the manifest path for the environment at dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, GroveDirName, EnvDirName, ManifestFileName)
}

// LockfilePath returns the lockfile path for the environment at dir.
func LockfilePath(dir string) string {
	return filepath.Join(dir, GroveDirName, EnvDirName, LockfileFileName)
}

// RemoteRefPath returns the remote link path for the environment at dir.
func RemoteRefPath(dir string) string {
	return filepath.Join(dir, GroveDirName, EnvDirName, RemoteRefFileName)
}

// MutationLockPath returns the mutation lock path for the environment at dir.
func MutationLockPath(dir string) string {
	return filepath.Join(dir, GroveDirName, MutationLockFileName)
}

// RunDir returns the directory published trees are linked under.
func RunDir(dir string) string {
	return filepath.Join(dir, GroveDirName, RunDirName)
}

// CurrentLink returns the "current" symlink path for a platform.
func CurrentLink(dir, platform string) string {
	return filepath.Join(RunDir(dir), "current."+platform)
}

// GlobalEnvDir returns the per-user global environment directory, targeted
// by the --global flag instead of the working directory.
func GlobalEnvDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "grove", "global"), nil
}

// DefaultPlatforms is the platform set environments are locked for when the
// user config does not override it.
var DefaultPlatforms = []string{
	"aarch64-darwin",
	"aarch64-linux",
	"x86_64-darwin",
	"x86_64-linux",
}

// CurrentPlatform maps the running Go toolchain's platform to the catalog's
// platform naming.
func CurrentPlatform() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return fmt.Sprintf("%s-%s", arch, runtime.GOOS)
}
