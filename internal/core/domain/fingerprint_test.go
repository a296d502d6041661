package domain_test

import (
	"testing"

	"go.trai.ch/grove/internal/core/domain"
)

func TestFingerprint_ChangesWithEitherDocument(t *testing.T) {
	manifest := []byte("version = 1\n")
	lockfile := []byte(`{"lockfile_version": 1}`)

	base := domain.Fingerprint(manifest, lockfile)

	if got := domain.Fingerprint(manifest, lockfile); got != base {
		t.Errorf("Fingerprint() not deterministic: %s != %s", got, base)
	}
	if got := domain.Fingerprint([]byte("version = 1\n# edited\n"), lockfile); got == base {
		t.Error("Fingerprint() did not change when the manifest changed")
	}
	if got := domain.Fingerprint(manifest, []byte(`{"lockfile_version": 1, "manifest_hash": "x"}`)); got == base {
		t.Error("Fingerprint() did not change when the lockfile changed")
	}
}

func TestFingerprint_SeparatorMatters(t *testing.T) {
	// Moving bytes across the manifest/lockfile boundary must not collide.
	a := domain.Fingerprint([]byte("ab"), []byte("c"))
	b := domain.Fingerprint([]byte("a"), []byte("bc"))
	if a == b {
		t.Error("Fingerprint() collides across the document boundary")
	}
}

func TestEnvID_StableAcrossRelativeAndAbsolute(t *testing.T) {
	id := domain.EnvID("/work/project")
	if id != domain.EnvID("/work/project") {
		t.Error("EnvID() not deterministic")
	}
	if id == domain.EnvID("/work/other") {
		t.Error("EnvID() does not distinguish directories")
	}
	if len(id) != 16 {
		t.Errorf("EnvID() length = %d, want 16", len(id))
	}
}
