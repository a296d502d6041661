package domain

import "strings"

// MergeManifests folds manifests in order into one composite. Later
// manifests win on key collisions in both the install and vars tables; the
// caller puts the composer last so its declarations override every include.
// Hooks are concatenated in merge order rather than overwritten. The
// composite carries no include directives of its own.
func MergeManifests(manifests ...*Manifest) *Manifest {
	out := NewManifest()

	var hooks []string
	for _, m := range manifests {
		if m == nil {
			continue
		}
		for id, req := range m.Install {
			out.Install[id] = req
		}
		for k, v := range m.Vars {
			out.Vars[k] = v
		}
		if s := strings.TrimSpace(m.Hook.OnActivate); s != "" {
			hooks = append(hooks, s)
		}
	}
	out.Hook.OnActivate = strings.Join(hooks, "\n")
	return out
}

// MergeLockfiles folds lockfiles in order into one composite, with the same
// later-wins rule per (platform, install-ID) and per registry input. The
// composite's manifest hash and includes are the caller's to set.
func MergeLockfiles(lockfiles ...*Lockfile) *Lockfile {
	out := NewLockfile()
	for _, lf := range lockfiles {
		if lf == nil {
			continue
		}
		for name, in := range lf.Registry.Inputs {
			out.Registry.Inputs[name] = in
		}
		for _, pkgs := range lf.Packages {
			for _, pkg := range pkgs {
				out.Put(pkg)
			}
		}
	}
	return out
}
