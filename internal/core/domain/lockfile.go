package domain

import (
	"bytes"
	"encoding/json"
	"sort"

	"go.trai.ch/zerr"
)

// LockfileVersion is the only supported lockfile format version.
const LockfileVersion = 1

// DefaultInput is the registry input packages resolve against when the
// request does not name one.
const DefaultInput = "nixpkgs"

// Input is a resolved reference to a package index snapshot.
type Input struct {
	// URL locates the input (e.g. "github:NixOS/nixpkgs").
	URL string `json:"url"`

	// Rev is the revision the snapshot was taken at.
	Rev string `json:"rev"`

	// Hash is the content hash of the snapshot.
	Hash string `json:"hash"`
}

// Registry records the resolved inputs a lockfile was produced against.
type Registry struct {
	Inputs map[string]Input `json:"inputs"`
}

// LockedPackage is a fully resolved build of one install entry on one
// platform.
type LockedPackage struct {
	InstallID string `json:"install_id"`
	AttrPath  string `json:"attr_path"`
	Version   string `json:"version"`
	Platform  string `json:"platform"`

	// Input names the registry input that resolved this package;
	// InputRev and InputHash pin the snapshot it resolved against.
	Input     string `json:"input"`
	InputRev  string `json:"input_rev"`
	InputHash string `json:"input_hash"`

	// StorePath and Hash identify the concrete build in the store.
	StorePath string `json:"store_path"`
	Hash      string `json:"hash"`

	// Request is the manifest request this package was resolved from.
	// Re-locking reuses the entry verbatim while the request is unchanged.
	Request PackageRequest `json:"request"`
}

// LockedInclude caches one included environment's state as of the last
// successful merge.
type LockedInclude struct {
	Name        string            `json:"name"`
	Descriptor  IncludeDescriptor `json:"descriptor"`
	Fingerprint string            `json:"fingerprint"`
	Manifest    *Manifest         `json:"manifest"`
	Lockfile    *Lockfile         `json:"lockfile"`
}

// Lockfile is the derived, reproducible resolution of a manifest. It is
// machine-generated and never hand-edited.
type Lockfile struct {
	Version int `json:"lockfile_version"`

	// ManifestHash fingerprints the manifest this lockfile was produced
	// from, used to detect drift before activation.
	ManifestHash string `json:"manifest_hash"`

	Registry Registry `json:"registry"`

	// Packages maps platform -> install-ID -> resolved build.
	Packages map[string]map[string]LockedPackage `json:"packages"`

	// Include caches the included environments folded into this lockfile,
	// in manifest include order. Empty for non-composing environments.
	Include []LockedInclude `json:"include,omitempty"`
}

// NewLockfile returns an empty lockfile at the current format version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version:  LockfileVersion,
		Registry: Registry{Inputs: map[string]Input{}},
		Packages: map[string]map[string]LockedPackage{},
	}
}

// Package looks up the resolved build for an install-ID on a platform.
func (l *Lockfile) Package(platform, installID string) (LockedPackage, bool) {
	pkgs, ok := l.Packages[platform]
	if !ok {
		return LockedPackage{}, false
	}
	pkg, ok := pkgs[installID]
	return pkg, ok
}

// Put records a resolved build, creating the platform map as needed.
func (l *Lockfile) Put(pkg LockedPackage) {
	if l.Packages == nil {
		l.Packages = map[string]map[string]LockedPackage{}
	}
	if l.Packages[pkg.Platform] == nil {
		l.Packages[pkg.Platform] = map[string]LockedPackage{}
	}
	l.Packages[pkg.Platform][pkg.InstallID] = pkg
}

// InstallIDs returns the install-IDs locked for a platform, sorted.
func (l *Lockfile) InstallIDs(platform string) []string {
	ids := make([]string, 0, len(l.Packages[platform]))
	for id := range l.Packages[platform] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the lockfile.
func (l *Lockfile) Clone() *Lockfile {
	out := NewLockfile()
	out.ManifestHash = l.ManifestHash
	for name, in := range l.Registry.Inputs {
		out.Registry.Inputs[name] = in
	}
	for _, pkgs := range l.Packages {
		for _, pkg := range pkgs {
			out.Put(pkg)
		}
	}
	for _, inc := range l.Include {
		cp := inc
		if inc.Manifest != nil {
			cp.Manifest = inc.Manifest.Clone()
		}
		if inc.Lockfile != nil {
			cp.Lockfile = inc.Lockfile.Clone()
		}
		out.Include = append(out.Include, cp)
	}
	return out
}

// Encode serializes the lockfile. Maps marshal with sorted keys, so output
// is deterministic for a given lockfile regardless of construction order.
func (l *Lockfile) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode lockfile")
	}
	return append(data, '\n'), nil
}

// ParseLockfile decodes a lockfile, rejecting unknown fields and
// unsupported versions.
func ParseLockfile(data []byte) (*Lockfile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var lf Lockfile
	if err := dec.Decode(&lf); err != nil {
		return nil, zerr.With(ErrLockfileParse, "cause", err.Error())
	}
	if lf.Version != LockfileVersion {
		return nil, zerr.With(ErrLockfileParse, "lockfile_version", lf.Version)
	}
	if lf.Registry.Inputs == nil {
		lf.Registry.Inputs = map[string]Input{}
	}
	if lf.Packages == nil {
		lf.Packages = map[string]map[string]LockedPackage{}
	}
	return &lf, nil
}
