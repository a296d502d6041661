package compose_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/core/domain"
)

func TestUpgrade_NoChangesIsNoOp(t *testing.T) {
	envs := newFakeEnvs()
	envs.byDir["../a"] = envDocs("a1", map[string]string{"x": "a"}, "hello")

	composer := composerWith(domain.IncludeDescriptor{Dir: "../a"})
	resolver, _ := newResolver(t, envs)

	first, err := resolver.Compose(context.Background(), composer, nil)
	require.NoError(t, err)

	comp, report, err := resolver.Upgrade(context.Background(), composer, first.Seed, nil)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.False(t, report.Entries[0].Changed)
	assert.Equal(t, "'a' has no changes", report.String())

	before, err := first.Seed.Encode()
	require.NoError(t, err)
	after, err := comp.Seed.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestUpgrade_SelectiveRefreshesOnlyNamed(t *testing.T) {
	envs := newFakeEnvs()
	envs.byDir["../a"] = envDocs("a1", map[string]string{"A": "old"}, "hello")
	envs.byDir["../b"] = envDocs("b1", map[string]string{"B": "old"}, "go")

	composer := composerWith(
		domain.IncludeDescriptor{Dir: "../a"},
		domain.IncludeDescriptor{Dir: "../b"},
	)
	resolver, _ := newResolver(t, envs)

	first, err := resolver.Compose(context.Background(), composer, nil)
	require.NoError(t, err)

	// Both upstreams changed, but only "b" is selected.
	envs.byDir["../a"] = envDocs("a2", map[string]string{"A": "new"}, "hello")
	envs.byDir["../b"] = envDocs("b2", map[string]string{"B": "new"}, "go")

	comp, report, err := resolver.Upgrade(context.Background(), composer, first.Seed, []string{"b"})
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "b", report.Entries[0].Name)
	assert.True(t, report.Entries[0].Changed)
	assert.Equal(t, "Upgraded 'b'", report.String())

	assert.Equal(t, "old", comp.Manifest.Vars["A"], "unselected include keeps its cached state")
	assert.Equal(t, "new", comp.Manifest.Vars["B"])
}

func TestUpgrade_UnchangedFingerprintKeepsCache(t *testing.T) {
	envs := newFakeEnvs()
	envs.byDir["../a"] = envDocs("a1", nil, "hello")

	composer := composerWith(domain.IncludeDescriptor{Dir: "../a"})
	resolver, _ := newResolver(t, envs)

	first, err := resolver.Compose(context.Background(), composer, nil)
	require.NoError(t, err)

	_, report, err := resolver.Upgrade(context.Background(), composer, first.Seed, []string{"a"})
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.False(t, report.Entries[0].Changed)
	assert.NoError(t, report.Entries[0].Err)
}

func TestUpgrade_FailedIncludeDoesNotAbortSiblings(t *testing.T) {
	envs := newFakeEnvs()
	envs.byDir["../a"] = envDocs("a1", map[string]string{"A": "old"}, "hello")
	envs.byDir["../b"] = envDocs("b1", map[string]string{"B": "old"}, "go")

	composer := composerWith(
		domain.IncludeDescriptor{Dir: "../a"},
		domain.IncludeDescriptor{Dir: "../b"},
	)
	resolver, _ := newResolver(t, envs)

	first, err := resolver.Compose(context.Background(), composer, nil)
	require.NoError(t, err)

	// "a" disappears from disk; "b" gets new content.
	delete(envs.byDir, "../a")
	envs.byDir["../b"] = envDocs("b2", map[string]string{"B": "new"}, "go")

	comp, report, err := resolver.Upgrade(context.Background(), composer, first.Seed, nil)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Error(t, report.Entries[0].Err)
	assert.True(t, report.Entries[1].Changed)
	assert.True(t, report.Failed())

	// The failed include keeps its cached contribution.
	assert.Equal(t, "old", comp.Manifest.Vars["A"])
	assert.Equal(t, "new", comp.Manifest.Vars["B"])
}

func TestUpgrade_UnknownNameRejected(t *testing.T) {
	envs := newFakeEnvs()
	envs.byDir["../a"] = envDocs("a1", nil)

	composer := composerWith(domain.IncludeDescriptor{Dir: "../a"})
	resolver, _ := newResolver(t, envs)

	_, _, err := resolver.Upgrade(context.Background(), composer, nil, []string{"nope"})
	require.ErrorIs(t, err, domain.ErrIncludeNotFound)
}
