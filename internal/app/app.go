// Package app implements the application layer for grove: each CLI
// operation orchestrated over the engines and adapters.
package app

import (
	"context"
	"sort"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/adapters/manifeststore"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
	"go.trai.ch/grove/internal/engine/activate"
	"go.trai.ch/grove/internal/engine/compose"
	"go.trai.ch/grove/internal/engine/lock"
)

// App wires the grove operations together.
type App struct {
	store     *manifeststore.Store
	composer  *compose.Resolver
	engine    *lock.Engine
	activator *activate.Coordinator
	hub       ports.RemoteHub
	registry  ports.ActivationRegistry
	locker    ports.Locker
	cfg       *domain.Config
	logger    ports.Logger
}

// New creates an App.
func New(
	store *manifeststore.Store,
	composer *compose.Resolver,
	engine *lock.Engine,
	activator *activate.Coordinator,
	hub ports.RemoteHub,
	registry ports.ActivationRegistry,
	locker ports.Locker,
	cfg *domain.Config,
	logger ports.Logger,
) *App {
	return &App{
		store:     store,
		composer:  composer,
		engine:    engine,
		activator: activator,
		hub:       hub,
		registry:  registry,
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
	}
}

// withMutationLock runs fn holding the environment's exclusive mutation
// lock. Reads never take it; every manifest or lockfile write does.
func (a *App) withMutationLock(ctx context.Context, dir string, fn func() error) error {
	release, err := a.locker.Acquire(ctx, domain.MutationLockPath(dir), a.cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer func() {
		_ = release()
	}()
	return fn()
}

// relock produces and returns the environment's new lockfile, composing
// first when the manifest includes other environments.
func (a *App) relock(
	ctx context.Context,
	manifest *domain.Manifest,
	manifestRaw []byte,
	prior *domain.Lockfile,
	force lock.ForceSet,
) (*domain.Lockfile, lock.Report, error) {
	lockManifest := manifest
	seed := prior
	var includes []domain.LockedInclude

	if len(manifest.Include) > 0 {
		comp, err := a.composer.Compose(ctx, manifest, prior)
		if err != nil {
			return nil, lock.Report{}, err
		}
		lockManifest = comp.Manifest
		seed = comp.Seed
		includes = comp.Includes
	}

	lf, report, err := a.engine.Lock(ctx, lockManifest, manifestRaw, seed, force)
	if err != nil {
		return nil, lock.Report{}, err
	}
	lf.Include = includes
	return lf, report, nil
}

// Init scaffolds a fresh environment at dir.
func (a *App) Init(ctx context.Context, dir string) error {
	return a.withMutationLock(ctx, dir, func() error {
		return a.store.InitEnvironment(dir)
	})
}

// parsePackageArg turns an install argument into a request. "hello" asks
// for the latest hello; "hello@2.12" pins a version constraint.
func parsePackageArg(arg string) domain.PackageRequest {
	path, version, _ := strings.Cut(arg, "@")
	return domain.PackageRequest{Path: path, Version: version}
}

// Install adds packages to the manifest and locks them. The manifest is
// only written once every new entry has resolved.
func (a *App) Install(ctx context.Context, dir string, args []string) error {
	if len(args) == 0 {
		return zerr.New("nothing to install")
	}
	return a.withMutationLock(ctx, dir, func() error {
		manifest, raw, err := a.store.LoadManifest(dir)
		if err != nil {
			return err
		}
		prior, _, err := a.store.LoadLockfile(dir)
		if err != nil {
			return err
		}

		for _, arg := range args {
			req := parsePackageArg(arg)
			raw, err = a.store.AddInstall(raw, domain.InferInstallID(req.Path), req)
			if err != nil {
				return err
			}
		}
		manifest, err = manifeststore.ParseManifest(raw)
		if err != nil {
			return err
		}

		lf, _, err := a.relock(ctx, manifest, raw, prior, lock.ForceNone())
		if err != nil {
			return err
		}

		if err := a.store.SaveManifest(dir, raw); err != nil {
			return err
		}
		return a.store.SaveLockfile(dir, lf)
	})
}

// Uninstall removes packages from the manifest and relocks.
func (a *App) Uninstall(ctx context.Context, dir string, ids []string) error {
	if len(ids) == 0 {
		return zerr.New("nothing to uninstall")
	}
	return a.withMutationLock(ctx, dir, func() error {
		_, raw, err := a.store.LoadManifest(dir)
		if err != nil {
			return err
		}
		prior, _, err := a.store.LoadLockfile(dir)
		if err != nil {
			return err
		}

		for _, id := range ids {
			raw, err = a.store.RemoveInstall(raw, id)
			if err != nil {
				return err
			}
		}
		manifest, err := manifeststore.ParseManifest(raw)
		if err != nil {
			return err
		}

		lf, _, err := a.relock(ctx, manifest, raw, prior, lock.ForceNone())
		if err != nil {
			return err
		}

		if err := a.store.SaveManifest(dir, raw); err != nil {
			return err
		}
		return a.store.SaveLockfile(dir, lf)
	})
}

// Edit replaces the manifest wholesale, validating and relocking before
// anything is written.
func (a *App) Edit(ctx context.Context, dir string, content []byte) error {
	return a.withMutationLock(ctx, dir, func() error {
		manifest, err := manifeststore.ParseManifest(content)
		if err != nil {
			return err
		}
		prior, _, err := a.store.LoadLockfile(dir)
		if err != nil {
			return err
		}

		lf, _, err := a.relock(ctx, manifest, content, prior, lock.ForceNone())
		if err != nil {
			return err
		}

		if err := a.store.SaveManifest(dir, content); err != nil {
			return err
		}
		return a.store.SaveLockfile(dir, lf)
	})
}

// Update refreshes input snapshots: every input when names is empty, the
// named ones otherwise. Locked packages are untouched; they re-resolve
// only on reinstall.
func (a *App) Update(ctx context.Context, dir string, inputs []string) (lock.Report, error) {
	var report lock.Report
	err := a.withMutationLock(ctx, dir, func() error {
		manifest, raw, err := a.store.LoadManifest(dir)
		if err != nil {
			return err
		}
		prior, _, err := a.store.LoadLockfile(dir)
		if err != nil {
			return err
		}

		force := lock.ForceAll()
		if len(inputs) > 0 {
			force = lock.ForceInputs(inputs...)
		}

		lf, rep, err := a.relock(ctx, manifest, raw, prior, force)
		if err != nil {
			return err
		}
		report = rep
		return a.store.SaveLockfile(dir, lf)
	})
	return report, err
}

// IncludeUpgrade re-evaluates included environments and merges the changed
// ones. Names select a subset; empty means all.
func (a *App) IncludeUpgrade(ctx context.Context, dir string, names []string) (compose.UpgradeReport, error) {
	var report compose.UpgradeReport
	err := a.withMutationLock(ctx, dir, func() error {
		manifest, raw, err := a.store.LoadManifest(dir)
		if err != nil {
			return err
		}
		if len(manifest.Include) == 0 {
			return zerr.With(zerr.New("environment includes no other environments"), "dir", dir)
		}
		prior, _, err := a.store.LoadLockfile(dir)
		if err != nil {
			return err
		}

		comp, rep, err := a.composer.Upgrade(ctx, manifest, prior, names)
		if err != nil {
			return err
		}
		report = rep

		lf, _, err := a.engine.Lock(ctx, comp.Manifest, raw, comp.Seed, lock.ForceNone())
		if err != nil {
			return err
		}
		lf.Include = comp.Includes
		return a.store.SaveLockfile(dir, lf)
	})
	return report, err
}

// Activate locks the environment if needed and enters it, blocking until
// the session ends.
func (a *App) Activate(ctx context.Context, dir string, command []string) error {
	manifest, raw, err := a.store.LoadManifest(dir)
	if err != nil {
		return err
	}
	lf, _, err := a.store.LoadLockfile(dir)
	if err != nil {
		return err
	}

	// A missing or drifted lockfile is re-locked on the way in.
	if lf == nil || lf.ManifestHash != domain.HashManifest(raw) {
		err := a.withMutationLock(ctx, dir, func() error {
			fresh, _, err := a.relock(ctx, manifest, raw, lf, lock.ForceNone())
			if err != nil {
				return err
			}
			lf = fresh
			return a.store.SaveLockfile(dir, fresh)
		})
		if err != nil {
			return err
		}
	}

	sessionManifest := manifest
	if len(manifest.Include) > 0 {
		comp, err := a.composer.Compose(ctx, manifest, lf)
		if err != nil {
			return err
		}
		sessionManifest = comp.Manifest
	}

	return a.activator.Activate(ctx, activate.Request{
		Dir:      dir,
		Manifest: sessionManifest,
		Lockfile: lf,
		Command:  command,
	})
}

// Listing is the state List reports for one environment.
type Listing struct {
	Packages    []domain.LockedPackage
	Activations []domain.Activation
}

// List reports the packages locked for the current platform and the live
// activations of the environment. It takes no lock.
func (a *App) List(ctx context.Context, dir string) (Listing, error) {
	_, _, err := a.store.LoadManifest(dir)
	if err != nil {
		return Listing{}, err
	}
	lf, _, err := a.store.LoadLockfile(dir)
	if err != nil {
		return Listing{}, err
	}

	var listing Listing
	if lf != nil {
		platform := domain.CurrentPlatform()
		for _, id := range lf.InstallIDs(platform) {
			pkg, _ := lf.Package(platform, id)
			listing.Packages = append(listing.Packages, pkg)
		}
	}

	activations, err := a.registry.List(ctx, domain.EnvID(dir))
	if err != nil {
		return Listing{}, err
	}
	sort.Slice(activations, func(i, j int) bool {
		return activations[i].StartedAt.Before(activations[j].StartedAt)
	})
	listing.Activations = activations
	return listing, nil
}

// parseRemoteRef splits an "owner/name" reference.
func parseRemoteRef(ref string) (string, string, error) {
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" {
		return "", "", zerr.With(zerr.New("remote reference must be of the form 'owner/name'"), "ref", ref)
	}
	return owner, name, nil
}

// Push uploads the environment as a new generation of owner/name. The hub
// rejects a stale parent unless force is set.
func (a *App) Push(ctx context.Context, dir, ref string, force bool) (int, error) {
	owner, name, err := parseRemoteRef(ref)
	if err != nil {
		return 0, err
	}

	_, manifestRaw, err := a.store.LoadManifest(dir)
	if err != nil {
		return 0, err
	}
	lf, lockRaw, err := a.store.LoadLockfile(dir)
	if err != nil {
		return 0, err
	}
	if lf == nil {
		return 0, zerr.With(zerr.New("environment must be locked before pushing"), "dir", dir)
	}

	parent := 0
	if link, err := a.store.LoadRemoteRef(dir); err == nil && link != nil && link.Owner == owner && link.Name == name {
		parent = link.Generation
	}

	number, err := a.hub.Push(ctx, owner, name, ports.Generation{
		Number:   parent,
		Manifest: manifestRaw,
		Lockfile: lockRaw,
	}, force)
	if err != nil {
		return 0, err
	}

	if err := a.store.SaveRemoteRef(dir, manifeststore.RemoteRef{Owner: owner, Name: name, Generation: number}); err != nil {
		return 0, err
	}
	return number, nil
}

// Pull fetches a generation of owner/name into dir, replacing the local
// manifest and lockfile. Generation 0 means latest.
func (a *App) Pull(ctx context.Context, dir, ref string, generation int) error {
	owner, name, err := parseRemoteRef(ref)
	if err != nil {
		return err
	}

	gen, err := a.hub.Pull(ctx, owner, name, generation)
	if err != nil {
		return err
	}
	docs, err := a.store.ParseDocuments(gen.Manifest, gen.Lockfile)
	if err != nil {
		return err
	}

	return a.withMutationLock(ctx, dir, func() error {
		if err := a.store.SaveManifest(dir, docs.ManifestRaw); err != nil {
			return err
		}
		if docs.Lockfile != nil {
			if err := a.store.SaveLockfile(dir, docs.Lockfile); err != nil {
				return err
			}
		}
		return a.store.SaveRemoteRef(dir, manifeststore.RemoteRef{Owner: owner, Name: name, Generation: gen.Number})
	})
}
