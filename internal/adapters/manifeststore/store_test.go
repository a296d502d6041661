package manifeststore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/adapters/manifeststore"
	"go.trai.ch/grove/internal/core/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

func newStore() *manifeststore.Store {
	return manifeststore.New(nopLogger{})
}

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	path := domain.ManifestPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseManifest(t *testing.T) {
	m, err := manifeststore.ParseManifest([]byte(`
version = 1

[install.hello]
path = "hello"

[install.pip]
path = "python311Packages.pip"
version = "23.1"

[vars]
GREETING = "hi"

[hook]
on-activate = "echo ready"
`))
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Install["hello"].Path)
	assert.Equal(t, "23.1", m.Install["pip"].Version)
	assert.Equal(t, "hi", m.Vars["GREETING"])
	assert.Equal(t, "echo ready", m.Hook.OnActivate)
}

func TestParseManifestRejectsUnknownKeys(t *testing.T) {
	_, err := manifeststore.ParseManifest([]byte(`
version = 1

[install.hello]
path = "hello"
verion = "1.0"
`))
	require.ErrorIs(t, err, domain.ErrManifestParse)
	assert.Contains(t, err.Error(), "verion")
}

func TestParseManifestRejectsUnsupportedVersion(t *testing.T) {
	_, err := manifeststore.ParseManifest([]byte("version = 9"))
	require.Error(t, err)
}

func TestInitEnvironment(t *testing.T) {
	dir := t.TempDir()
	store := newStore()
	require.NoError(t, store.InitEnvironment(dir))

	m, raw, err := store.LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.ManifestVersion, m.Version)
	assert.Empty(t, m.Install)
	assert.Contains(t, string(raw), "[vars]")

	// A second init must not clobber the existing environment.
	err = store.InitEnvironment(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLoadManifestMissing(t *testing.T) {
	_, _, err := newStore().LoadManifest(t.TempDir())
	require.ErrorIs(t, err, domain.ErrManifestNotFound)
}

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := newStore()
	require.NoError(t, store.InitEnvironment(dir))

	// Never locked: both return values are nil.
	lf, raw, err := store.LoadLockfile(dir)
	require.NoError(t, err)
	assert.Nil(t, lf)
	assert.Nil(t, raw)

	want := domain.NewLockfile()
	want.ManifestHash = "abc123"
	want.Registry.Inputs[domain.DefaultInput] = domain.Input{URL: "github:NixOS/nixpkgs", Rev: "r1"}
	require.NoError(t, store.SaveLockfile(dir, want))

	got, raw, err := store.LoadLockfile(dir)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ManifestHash, got.ManifestHash)
	assert.Equal(t, want.Registry, got.Registry)
	assert.NotEmpty(t, raw)
}

func TestReadEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "version = 1\n\n[install.hello]\npath = \"hello\"\n")

	docs, err := newStore().ReadEnvironment(dir)
	require.NoError(t, err)
	assert.NotNil(t, docs.Manifest)
	assert.Nil(t, docs.Lockfile)
	assert.NotEmpty(t, docs.ManifestRaw)
}

func TestParseDocuments(t *testing.T) {
	store := newStore()

	lf := domain.NewLockfile()
	lockRaw, err := lf.Encode()
	require.NoError(t, err)

	docs, err := store.ParseDocuments([]byte("version = 1\n"), lockRaw)
	require.NoError(t, err)
	assert.NotNil(t, docs.Manifest)
	assert.NotNil(t, docs.Lockfile)

	docs, err = store.ParseDocuments([]byte("version = 1\n"), nil)
	require.NoError(t, err)
	assert.Nil(t, docs.Lockfile)
}

func TestSaveManifestIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store := newStore()
	require.NoError(t, store.InitEnvironment(dir))

	require.NoError(t, store.SaveManifest(dir, []byte("version = 1\n")))

	entries, err := os.ReadDir(filepath.Dir(domain.ManifestPath(dir)))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".manifest.toml.", "temp files must not linger")
	}
}
