// Package domain contains the core types for grove environments:
// manifests, lockfiles, includes and activations.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ManifestVersion is the only supported manifest format version.
const ManifestVersion = 1

// PackageRequest describes a single package the user asked for.
type PackageRequest struct {
	// Path is the attribute path of the package in the catalog
	// (e.g. "hello" or "python311Packages.pip").
	Path string `toml:"path" json:"path"`

	// Version is an optional version constraint (e.g. "1.21" or "^2.0").
	Version string `toml:"version,omitempty" json:"version,omitempty"`

	// Input names the registry input the package resolves against.
	// Empty means DefaultInput.
	Input string `toml:"input,omitempty" json:"input,omitempty"`
}

// ResolvingInput returns the name of the input this request resolves against.
func (r PackageRequest) ResolvingInput() string {
	if r.Input == "" {
		return DefaultInput
	}
	return r.Input
}

// Hook holds shell fragments run during activation.
type Hook struct {
	// OnActivate is sourced by the activating shell before the session starts.
	OnActivate string `toml:"on-activate,omitempty" json:"on-activate,omitempty"`
}

// IncludeDescriptor references another environment whose declarations are
// folded into the composing environment. Exactly one of Dir or Remote is set.
type IncludeDescriptor struct {
	// Dir is a local directory containing a .grove environment.
	Dir string `toml:"dir,omitempty" json:"dir,omitempty"`

	// Remote is an "owner/name" reference to a hub-hosted environment.
	Remote string `toml:"remote,omitempty" json:"remote,omitempty"`

	// Name optionally overrides the display name of the include.
	Name string `toml:"name,omitempty" json:"name,omitempty"`
}

// DisplayName returns the name an include is reported under: the explicit
// name if set, otherwise the trailing path segment of the directory or the
// name half of the remote reference.
func (d IncludeDescriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Dir != "" {
		return lastSegment(strings.TrimRight(d.Dir, "/"), "/")
	}
	return lastSegment(d.Remote, "/")
}

// Validate checks that the descriptor references exactly one source.
func (d IncludeDescriptor) Validate() error {
	if d.Dir == "" && d.Remote == "" {
		return zerr.New("include must set either 'dir' or 'remote'")
	}
	if d.Dir != "" && d.Remote != "" {
		return zerr.With(zerr.New("include must set only one of 'dir' and 'remote'"), "include", d.DisplayName())
	}
	if d.Remote != "" && strings.Count(d.Remote, "/") != 1 {
		return zerr.With(zerr.New("remote include must be of the form 'owner/name'"), "remote", d.Remote)
	}
	return nil
}

// Manifest is the user-authored declaration of one environment.
type Manifest struct {
	Version int                       `toml:"version" json:"version"`
	Install map[string]PackageRequest `toml:"install,omitempty" json:"install,omitempty"`
	Vars    map[string]string         `toml:"vars,omitempty" json:"vars,omitempty"`
	Hook    Hook                      `toml:"hook,omitempty" json:"hook,omitempty"`
	Include []IncludeDescriptor       `toml:"include,omitempty" json:"include,omitempty"`
}

// NewManifest returns an empty manifest at the current format version.
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		Install: map[string]PackageRequest{},
		Vars:    map[string]string{},
	}
}

// InferInstallID derives an install-ID from a package path: the trailing
// attribute segment ("python311Packages.pip" -> "pip").
func InferInstallID(path string) string {
	return lastSegment(path, ".")
}

// Validate checks structural invariants of the manifest. Field-level syntax
// is the manifest store's concern; this covers cross-field rules.
func (m *Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return zerr.With(zerr.New("unsupported manifest version"), "version", m.Version)
	}
	for id, req := range m.Install {
		if id == "" {
			return zerr.New("install entries must have a non-empty id")
		}
		if req.Path == "" {
			return zerr.With(zerr.New("install entry is missing 'path'"), "install_id", id)
		}
	}
	for _, inc := range m.Include {
		if err := inc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{
		Version: m.Version,
		Install: make(map[string]PackageRequest, len(m.Install)),
		Vars:    make(map[string]string, len(m.Vars)),
		Hook:    m.Hook,
	}
	for id, req := range m.Install {
		out.Install[id] = req
	}
	for k, v := range m.Vars {
		out.Vars[k] = v
	}
	out.Include = append(out.Include, m.Include...)
	return out
}

func lastSegment(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}
