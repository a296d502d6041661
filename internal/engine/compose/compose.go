// Package compose implements the composition resolver: folding included
// environments into a composite manifest and lockfile, and upgrading the
// cached include state when the referenced environments change.
package compose

import (
	"context"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// Composition is the effective state activation sees for an environment
// with a non-empty include list. It is owned by the composing environment;
// included environments are never written to.
type Composition struct {
	// Manifest is the composite manifest: includes folded in list order,
	// the composer's own declarations applied last.
	Manifest *domain.Manifest

	// Seed is the composite lockfile before the lock engine fills gaps:
	// include contributions folded in order, the composer's own resolved
	// entries on top.
	Seed *domain.Lockfile

	// Includes is the refreshed include cache, in include-list order.
	Includes []domain.LockedInclude
}

// Resolver folds included environments, local or remote, into composites.
type Resolver struct {
	envs   ports.EnvironmentReader
	hub    ports.RemoteHub
	logger ports.Logger
}

// NewResolver creates a composition resolver.
func NewResolver(envs ports.EnvironmentReader, hub ports.RemoteHub, logger ports.Logger) *Resolver {
	return &Resolver{envs: envs, hub: hub, logger: logger}
}

// Compose builds the composite for the composer's manifest. Include state
// cached in the prior lockfile is reused as-is; a fetch happens only for
// includes with no cached state. Detecting upstream changes is Upgrade's
// job, never a side effect of composing.
func (r *Resolver) Compose(ctx context.Context, composer *domain.Manifest, prior *domain.Lockfile) (*Composition, error) {
	includes := make([]domain.LockedInclude, 0, len(composer.Include))
	for _, desc := range composer.Include {
		if cached, ok := cachedInclude(prior, desc); ok {
			includes = append(includes, cached)
			continue
		}
		fetched, err := r.fetchInclude(ctx, desc)
		if err != nil {
			return nil, err
		}
		includes = append(includes, fetched)
	}
	return buildComposition(composer, prior, includes), nil
}

// fetchInclude obtains an included environment's current state through the
// local filesystem or the remote hub and fingerprints it.
func (r *Resolver) fetchInclude(ctx context.Context, desc domain.IncludeDescriptor) (domain.LockedInclude, error) {
	name := desc.DisplayName()

	var docs ports.EnvironmentDocs
	var err error
	if desc.Dir != "" {
		docs, err = r.envs.ReadEnvironment(desc.Dir)
	} else {
		docs, err = r.pullRemote(ctx, desc)
	}
	if err != nil {
		return domain.LockedInclude{}, zerr.With(zerr.Wrap(err, "failed to fetch included environment"), "include", name)
	}
	if docs.Lockfile == nil {
		return domain.LockedInclude{}, zerr.With(zerr.New("included environment is not locked"), "include", name)
	}

	return domain.LockedInclude{
		Name:        name,
		Descriptor:  desc,
		Fingerprint: domain.Fingerprint(docs.ManifestRaw, docs.LockfileRaw),
		Manifest:    docs.Manifest,
		Lockfile:    docs.Lockfile,
	}, nil
}

func (r *Resolver) pullRemote(ctx context.Context, desc domain.IncludeDescriptor) (ports.EnvironmentDocs, error) {
	owner, envName, ok := strings.Cut(desc.Remote, "/")
	if !ok {
		return ports.EnvironmentDocs{}, zerr.With(zerr.New("malformed remote reference"), "remote", desc.Remote)
	}
	gen, err := r.hub.Pull(ctx, owner, envName, 0)
	if err != nil {
		return ports.EnvironmentDocs{}, err
	}
	return r.envs.ParseDocuments(gen.Manifest, gen.Lockfile)
}

// cachedInclude finds the include state cached at the last merge.
func cachedInclude(prior *domain.Lockfile, desc domain.IncludeDescriptor) (domain.LockedInclude, bool) {
	if prior == nil {
		return domain.LockedInclude{}, false
	}
	for _, inc := range prior.Include {
		if inc.Descriptor == desc {
			return inc, true
		}
	}
	return domain.LockedInclude{}, false
}

// buildComposition merges include contributions in list order with the
// composer's own declarations last. The composer's previously resolved
// entries (install-IDs declared directly in its manifest) ride on top of
// the fold so include refreshes never disturb them.
func buildComposition(composer *domain.Manifest, prior *domain.Lockfile, includes []domain.LockedInclude) *Composition {
	manifests := make([]*domain.Manifest, 0, len(includes)+1)
	lockfiles := make([]*domain.Lockfile, 0, len(includes)+1)
	for _, inc := range includes {
		manifests = append(manifests, inc.Manifest)
		lockfiles = append(lockfiles, inc.Lockfile)
	}
	manifests = append(manifests, composer)
	lockfiles = append(lockfiles, composerOwn(composer, prior))

	seed := domain.MergeLockfiles(lockfiles...)
	seed.Include = includes

	return &Composition{
		Manifest: domain.MergeManifests(manifests...),
		Seed:     seed,
		Includes: includes,
	}
}

// composerOwn extracts the composer's direct contribution from the prior
// composite lockfile: its own install entries and the pinned registry.
func composerOwn(composer *domain.Manifest, prior *domain.Lockfile) *domain.Lockfile {
	if prior == nil {
		return nil
	}
	own := domain.NewLockfile()
	for name, in := range prior.Registry.Inputs {
		own.Registry.Inputs[name] = in
	}
	for _, pkgs := range prior.Packages {
		for id, pkg := range pkgs {
			if _, ok := composer.Install[id]; ok {
				own.Put(pkg)
			}
		}
	}
	return own
}
