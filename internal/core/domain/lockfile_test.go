package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/grove/internal/core/domain"
)

func lockedPkg(id, platform, rev string) domain.LockedPackage {
	return domain.LockedPackage{
		InstallID: id,
		AttrPath:  id,
		Version:   "1.0.0",
		Platform:  platform,
		Input:     domain.DefaultInput,
		InputRev:  rev,
		InputHash: "sha256-" + rev,
		StorePath: "/grove/store/abc-" + id,
		Hash:      "h-" + id,
		Request:   domain.PackageRequest{Path: id},
	}
}

func TestLockfile_RoundTrip(t *testing.T) {
	lf := domain.NewLockfile()
	lf.ManifestHash = "00000000deadbeef"
	lf.Registry.Inputs[domain.DefaultInput] = domain.Input{
		URL:  "github:NixOS/nixpkgs",
		Rev:  "abc123",
		Hash: "sha256-abc123",
	}
	lf.Put(lockedPkg("hello", "x86_64-linux", "abc123"))
	lf.Put(lockedPkg("hello", "aarch64-darwin", "abc123"))

	data, err := lf.Encode()
	require.NoError(t, err)

	parsed, err := domain.ParseLockfile(data)
	require.NoError(t, err)
	assert.Equal(t, lf, parsed)
}

func TestLockfile_EncodeDeterministic(t *testing.T) {
	build := func(order []string) []byte {
		lf := domain.NewLockfile()
		lf.Registry.Inputs[domain.DefaultInput] = domain.Input{Rev: "abc"}
		for _, id := range order {
			lf.Put(lockedPkg(id, "x86_64-linux", "abc"))
		}
		data, err := lf.Encode()
		require.NoError(t, err)
		return data
	}

	first := build([]string{"zlib", "hello", "go"})
	second := build([]string{"go", "zlib", "hello"})
	assert.Equal(t, string(first), string(second), "serialization must not depend on insertion order")
}

func TestParseLockfile_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown field", data: `{"lockfile_version": 1, "manifest_hash": "", "registry": {"inputs": {}}, "packages": {}, "bogus": 1}`},
		{name: "unsupported version", data: `{"lockfile_version": 9, "manifest_hash": "", "registry": {"inputs": {}}, "packages": {}}`},
		{name: "not json", data: `version = 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseLockfile([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestLockfile_InstallIDsSorted(t *testing.T) {
	lf := domain.NewLockfile()
	lf.Put(lockedPkg("zlib", "x86_64-linux", "abc"))
	lf.Put(lockedPkg("go", "x86_64-linux", "abc"))
	lf.Put(lockedPkg("hello", "x86_64-linux", "abc"))

	assert.Equal(t, []string{"go", "hello", "zlib"}, lf.InstallIDs("x86_64-linux"))
	assert.Empty(t, lf.InstallIDs("aarch64-darwin"))
}

func TestLockfile_Clone(t *testing.T) {
	lf := domain.NewLockfile()
	lf.Registry.Inputs[domain.DefaultInput] = domain.Input{Rev: "abc"}
	lf.Put(lockedPkg("hello", "x86_64-linux", "abc"))
	lf.Include = []domain.LockedInclude{{
		Name:        "base",
		Descriptor:  domain.IncludeDescriptor{Dir: "../base"},
		Fingerprint: "f1",
		Manifest:    domain.NewManifest(),
		Lockfile:    domain.NewLockfile(),
	}}

	clone := lf.Clone()
	require.Equal(t, lf, clone)

	clone.Put(lockedPkg("go", "x86_64-linux", "abc"))
	clone.Include[0].Manifest.Vars["X"] = "y"

	_, ok := lf.Package("x86_64-linux", "go")
	assert.False(t, ok, "Clone() shares the packages map with the original")
	assert.Empty(t, lf.Include[0].Manifest.Vars)
}
