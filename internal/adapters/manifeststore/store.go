// Package manifeststore reads and writes environment state on disk: the
// user-authored manifest and the machine-generated lockfile under
// .grove/env/.
package manifeststore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// initialManifest is the manifest written by `grove init`.
const initialManifest = `version = 1

# Packages available inside the environment, one entry per install-id.
#
# [install.hello]
# path = "hello"

# Variables exported to activated sessions.
[vars]

# Shell fragment sourced when a session activates.
#
# [hook]
# on-activate = "echo environment ready"
`

// Store is the filesystem-backed environment store.
type Store struct {
	logger ports.Logger
}

// New creates a Store.
func New(logger ports.Logger) *Store {
	return &Store{logger: logger}
}

var _ ports.EnvironmentReader = (*Store)(nil)

// ParseManifest decodes manifest bytes, rejecting unknown keys so typos
// surface as errors instead of being silently ignored.
func ParseManifest(data []byte) (*domain.Manifest, error) {
	var m domain.Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, zerr.With(domain.ErrManifestParse, "cause", err.Error())
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, zerr.Wrap(domain.ErrManifestParse, "unknown keys: "+strings.Join(keys, ", "))
	}
	if m.Install == nil {
		m.Install = map[string]domain.PackageRequest{}
	}
	if m.Vars == nil {
		m.Vars = map[string]string{}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// InitEnvironment scaffolds a fresh environment at dir.
func (s *Store) InitEnvironment(dir string) error {
	path := domain.ManifestPath(dir)
	if _, err := os.Stat(path); err == nil {
		return zerr.With(zerr.New("environment already exists"), "dir", dir)
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create environment directory")
	}
	if err := atomicWrite(path, []byte(initialManifest), domain.FilePerm); err != nil {
		return err
	}
	s.logger.Info("created environment at " + domain.GroveDir(dir))
	return nil
}

// LoadManifest reads and parses the manifest of the environment at dir,
// returning the raw bytes alongside for fingerprinting and editing.
func (s *Store) LoadManifest(dir string) (*domain.Manifest, []byte, error) {
	data, err := os.ReadFile(domain.ManifestPath(dir))
	if os.IsNotExist(err) {
		return nil, nil, zerr.With(domain.ErrManifestNotFound, "dir", dir)
	}
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to read manifest")
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

// SaveManifest atomically replaces the manifest of the environment at dir.
func (s *Store) SaveManifest(dir string, data []byte) error {
	return atomicWrite(domain.ManifestPath(dir), data, domain.FilePerm)
}

// LoadLockfile reads the lockfile of the environment at dir. A missing
// lockfile is not an error; it returns nils for a never-locked environment.
func (s *Store) LoadLockfile(dir string) (*domain.Lockfile, []byte, error) {
	data, err := os.ReadFile(domain.LockfilePath(dir))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to read lockfile")
	}
	lf, err := domain.ParseLockfile(data)
	if err != nil {
		return nil, nil, err
	}
	return lf, data, nil
}

// SaveLockfile atomically replaces the lockfile of the environment at dir.
func (s *Store) SaveLockfile(dir string, lf *domain.Lockfile) error {
	data, err := lf.Encode()
	if err != nil {
		return err
	}
	return atomicWrite(domain.LockfilePath(dir), data, domain.FilePerm)
}

// ReadEnvironment implements ports.EnvironmentReader.
func (s *Store) ReadEnvironment(dir string) (ports.EnvironmentDocs, error) {
	m, manifestRaw, err := s.LoadManifest(dir)
	if err != nil {
		return ports.EnvironmentDocs{}, err
	}
	lf, lockfileRaw, err := s.LoadLockfile(dir)
	if err != nil {
		return ports.EnvironmentDocs{}, err
	}
	return ports.EnvironmentDocs{
		Manifest:    m,
		Lockfile:    lf,
		ManifestRaw: manifestRaw,
		LockfileRaw: lockfileRaw,
	}, nil
}

// ParseDocuments implements ports.EnvironmentReader for documents obtained
// elsewhere, e.g. pulled from the hub.
func (s *Store) ParseDocuments(manifestRaw, lockfileRaw []byte) (ports.EnvironmentDocs, error) {
	m, err := ParseManifest(manifestRaw)
	if err != nil {
		return ports.EnvironmentDocs{}, err
	}
	docs := ports.EnvironmentDocs{
		Manifest:    m,
		ManifestRaw: manifestRaw,
		LockfileRaw: lockfileRaw,
	}
	if len(lockfileRaw) > 0 {
		lf, err := domain.ParseLockfile(lockfileRaw)
		if err != nil {
			return ports.EnvironmentDocs{}, err
		}
		docs.Lockfile = lf
	}
	return docs, nil
}

// atomicWrite writes data to a temp file in the target directory and renames
// it into place, so readers never observe a partially written document.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create environment directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.Wrap(err, "failed to replace file")
	}
	return nil
}
