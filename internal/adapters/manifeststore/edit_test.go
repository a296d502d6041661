package manifeststore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/adapters/manifeststore"
	"go.trai.ch/grove/internal/core/domain"
)

const commentedManifest = `# my dev environment
version = 1

[install.hello]
path = "hello"

# keep this around for debugging
[vars]
DEBUG = "1"
`

func TestAddInstallPreservesComments(t *testing.T) {
	store := newStore()
	out, err := store.AddInstall([]byte(commentedManifest), "ripgrep", domain.PackageRequest{Path: "ripgrep", Version: "14"})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# my dev environment")
	assert.Contains(t, text, "# keep this around for debugging")
	assert.Contains(t, text, "[install.ripgrep]")
	assert.Contains(t, text, `version = "14"`)

	m, err := manifeststore.ParseManifest(out)
	require.NoError(t, err)
	assert.Len(t, m.Install, 2)
	assert.Equal(t, "ripgrep", m.Install["ripgrep"].Path)
	assert.Equal(t, "1", m.Vars["DEBUG"])
}

func TestAddInstallPlacesEntryWithOtherInstalls(t *testing.T) {
	store := newStore()
	out, err := store.AddInstall([]byte(commentedManifest), "go", domain.PackageRequest{Path: "go"})
	require.NoError(t, err)

	text := string(out)
	helloAt := indexOf(t, text, "[install.hello]")
	goAt := indexOf(t, text, "[install.go]")
	varsAt := indexOf(t, text, "[vars]")
	assert.Less(t, helloAt, goAt)
	assert.Less(t, goAt, varsAt)
}

func TestAddInstallIntoEmptyManifest(t *testing.T) {
	store := newStore()
	out, err := store.AddInstall([]byte("version = 1\n"), "hello", domain.PackageRequest{Path: "hello"})
	require.NoError(t, err)

	m, err := manifeststore.ParseManifest(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Install["hello"].Path)
	assert.Equal(t, byte('\n'), out[len(out)-1], "document keeps its final newline")
}

func TestAddInstallDuplicateRejected(t *testing.T) {
	store := newStore()
	_, err := store.AddInstall([]byte(commentedManifest), "hello", domain.PackageRequest{Path: "hello"})
	require.ErrorIs(t, err, domain.ErrAlreadyInstalled)
}

func TestRemoveInstallSubtable(t *testing.T) {
	store := newStore()
	out, err := store.RemoveInstall([]byte(commentedManifest), "hello")
	require.NoError(t, err)

	text := string(out)
	assert.NotContains(t, text, "[install.hello]")
	assert.Contains(t, text, "# keep this around for debugging")

	m, err := manifeststore.ParseManifest(out)
	require.NoError(t, err)
	assert.Empty(t, m.Install)
	assert.Equal(t, "1", m.Vars["DEBUG"])
}

func TestRemoveInstallInlineEntry(t *testing.T) {
	store := newStore()
	manifest := `version = 1

[install]
hello = { path = "hello" }
ripgrep = { path = "ripgrep" }
`
	out, err := store.RemoveInstall([]byte(manifest), "hello")
	require.NoError(t, err)

	m, err := manifeststore.ParseManifest(out)
	require.NoError(t, err)
	assert.Len(t, m.Install, 1)
	assert.Equal(t, "ripgrep", m.Install["ripgrep"].Path)
}

func TestRemoveInstallMissing(t *testing.T) {
	store := newStore()
	_, err := store.RemoveInstall([]byte(commentedManifest), "ripgrep")
	require.ErrorIs(t, err, domain.ErrNotInstalled)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	i := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, i, 0, "expected %q in document", needle)
	return i
}
