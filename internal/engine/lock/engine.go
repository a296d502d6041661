// Package lock implements the lock engine: turning a manifest plus the
// prior lockfile into a new lockfile, resolving only what needs resolving.
package lock

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// ForceSet names the registry inputs whose snapshots must be re-queried.
type ForceSet struct {
	All   bool
	Names map[string]struct{}
}

// ForceNone refreshes no inputs.
func ForceNone() ForceSet { return ForceSet{} }

// ForceAll refreshes every input.
func ForceAll() ForceSet { return ForceSet{All: true} }

// ForceInputs refreshes the named inputs.
func ForceInputs(names ...string) ForceSet {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return ForceSet{Names: set}
}

// Contains reports whether the named input must be refreshed.
func (f ForceSet) Contains(name string) bool {
	if f.All {
		return true
	}
	_, ok := f.Names[name]
	return ok
}

// ReportKind classifies the outcome of a lock operation.
type ReportKind int

const (
	// ReportLockedAll is the first lock of an environment.
	ReportLockedAll ReportKind = iota
	// ReportUpToDate means no input needed a refresh.
	ReportUpToDate
	// ReportUpdated means one or more inputs were refreshed.
	ReportUpdated
)

// Report describes what a lock operation did.
type Report struct {
	Kind    ReportKind
	Updated []string
}

// String renders the user-facing outcome line.
func (r Report) String() string {
	switch r.Kind {
	case ReportLockedAll:
		return "Locked all inputs"
	case ReportUpdated:
		return "Updated: " + strings.Join(r.Updated, ", ")
	default:
		return "All inputs are up to date"
	}
}

// Engine resolves manifests into lockfiles. Locking is incremental: the
// prior lockfile is an immutable cache consulted before any catalog call,
// and previously resolved entries are reused verbatim unless their request
// changed. Refreshing an input snapshot does not disturb entries resolved
// against the old snapshot; packages are re-resolved only on reinstall.
type Engine struct {
	catalog   ports.CatalogClient
	tracer    ports.Tracer
	logger    ports.Logger
	platforms []string
}

// NewEngine creates a lock engine resolving for the given platforms.
func NewEngine(catalog ports.CatalogClient, tracer ports.Tracer, logger ports.Logger, platforms []string) *Engine {
	if len(platforms) == 0 {
		platforms = domain.DefaultPlatforms
	}
	return &Engine{
		catalog:   catalog,
		tracer:    tracer,
		logger:    logger,
		platforms: platforms,
	}
}

// Lock produces a new lockfile for the manifest. manifestRaw is the byte
// content the manifest was parsed from, recorded as the drift hash. The
// operation is all-or-nothing: any resolution failure returns an error and
// no lockfile.
func (e *Engine) Lock(
	ctx context.Context,
	manifest *domain.Manifest,
	manifestRaw []byte,
	prior *domain.Lockfile,
	force ForceSet,
) (*domain.Lockfile, Report, error) {
	ctx, span := e.tracer.Start(ctx, "lock")
	defer span.End()

	out := domain.NewLockfile()
	out.ManifestHash = domain.HashManifest(manifestRaw)

	inputs, updated, err := e.resolveInputs(ctx, manifest, prior, force)
	if err != nil {
		span.RecordError(err)
		return nil, Report{}, err
	}
	out.Registry.Inputs = inputs

	carried, pending := e.partition(manifest, prior)
	for _, pkg := range carried {
		out.Put(pkg)
	}

	if err := e.resolvePending(ctx, pending, inputs, out); err != nil {
		span.RecordError(err)
		return nil, Report{}, err
	}

	report := Report{Updated: updated}
	switch {
	case prior == nil || len(prior.Registry.Inputs) == 0:
		report.Kind = ReportLockedAll
	case len(updated) > 0:
		report.Kind = ReportUpdated
	default:
		report.Kind = ReportUpToDate
	}
	return out, report, nil
}

// resolveInputs produces the output registry: inputs named in force (or
// missing from the prior lockfile) are re-queried, the rest are reused
// unchanged. Only inputs some manifest entry resolves against (plus the
// default) are carried, so an input whose last package was uninstalled
// drops out of the registry. Returns the names of inputs whose snapshot
// actually changed.
func (e *Engine) resolveInputs(
	ctx context.Context,
	manifest *domain.Manifest,
	prior *domain.Lockfile,
	force ForceSet,
) (map[string]domain.Input, []string, error) {
	names := map[string]struct{}{}
	for _, req := range manifest.Install {
		names[req.ResolvingInput()] = struct{}{}
	}
	// The default input stays pinned even with nothing installed so a
	// later install resolves against a known snapshot.
	names[domain.DefaultInput] = struct{}{}

	for name := range force.Names {
		if _, ok := names[name]; !ok {
			return nil, nil, zerr.With(zerr.New("unknown input '"+name+"'"), "input", name)
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	inputs := make(map[string]domain.Input, len(sorted))
	var updated []string
	for _, name := range sorted {
		var priorInput domain.Input
		havePrior := false
		if prior != nil {
			priorInput, havePrior = prior.Registry.Inputs[name]
		}

		if havePrior && !force.Contains(name) {
			inputs[name] = priorInput
			continue
		}

		snapshot, err := e.catalog.Snapshot(ctx, name)
		if err != nil {
			return nil, nil, zerr.With(zerr.Wrap(err, "failed to fetch input snapshot"), "input", name)
		}
		inputs[name] = snapshot
		if havePrior && (snapshot.Rev != priorInput.Rev || snapshot.Hash != priorInput.Hash) {
			updated = append(updated, name)
		}
	}
	return inputs, updated, nil
}

// pendingEntry is one install entry on one platform awaiting resolution.
type pendingEntry struct {
	installID string
	request   domain.PackageRequest
	platform  string
}

// partition splits the manifest's install table into entries carried over
// from the prior lockfile and entries that need catalog resolution. An
// entry is carried only when an identical request is already locked for
// every target platform.
func (e *Engine) partition(manifest *domain.Manifest, prior *domain.Lockfile) ([]domain.LockedPackage, []pendingEntry) {
	var carried []domain.LockedPackage
	var pending []pendingEntry

	ids := make([]string, 0, len(manifest.Install))
	for id := range manifest.Install {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		req := manifest.Install[id]
		satisfied := prior != nil
		if satisfied {
			for _, platform := range e.platforms {
				pkg, ok := prior.Package(platform, id)
				if !ok || pkg.Request != req {
					satisfied = false
					break
				}
			}
		}

		if satisfied {
			for _, platform := range e.platforms {
				pkg, _ := prior.Package(platform, id)
				carried = append(carried, pkg)
			}
			continue
		}
		for _, platform := range e.platforms {
			pending = append(pending, pendingEntry{installID: id, request: req, platform: platform})
		}
	}
	return carried, pending
}

// resolvePending queries the catalog for every pending entry, in parallel,
// and records results in out. Any failure aborts the whole lock.
func (e *Engine) resolvePending(
	ctx context.Context,
	pending []pendingEntry,
	inputs map[string]domain.Input,
	out *domain.Lockfile,
) error {
	if len(pending) == 0 {
		return nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, entry := range pending {
		g.Go(func() error {
			pkg, err := e.resolveOne(ctx, entry, inputs)
			if err != nil {
				return err
			}
			mu.Lock()
			out.Put(pkg)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) resolveOne(ctx context.Context, entry pendingEntry, inputs map[string]domain.Input) (domain.LockedPackage, error) {
	inputName := entry.request.ResolvingInput()
	input, ok := inputs[inputName]
	if !ok {
		return domain.LockedPackage{}, zerr.With(zerr.New("install entry references an unknown input"), "install_id", entry.installID)
	}

	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("resolve %s (%s)", entry.installID, entry.platform))
	defer span.End()

	candidates, err := e.catalog.Resolve(ctx, ports.ResolveRequest{
		Request:  entry.request,
		Platform: entry.platform,
		Input:    input,
	})
	if err != nil {
		span.RecordError(err)
		resolveErr := zerr.Wrap(err, domain.ErrResolutionFailed.Error())
		resolveErr = zerr.With(resolveErr, "install_id", entry.installID)
		return domain.LockedPackage{}, zerr.With(resolveErr, "platform", entry.platform)
	}
	if len(candidates) == 0 {
		noneErr := zerr.With(domain.ErrResolutionFailed, "install_id", entry.installID)
		noneErr = zerr.With(noneErr, "path", entry.request.Path)
		err := zerr.With(noneErr, "platform", entry.platform)
		span.RecordError(err)
		return domain.LockedPackage{}, err
	}

	best := candidates[0]
	e.logger.Info(fmt.Sprintf("resolved %s to %s@%s (%s)", entry.installID, best.AttrPath, best.Version, entry.platform))
	return domain.LockedPackage{
		InstallID: entry.installID,
		AttrPath:  best.AttrPath,
		Version:   best.Version,
		Platform:  entry.platform,
		Input:     inputName,
		InputRev:  input.Rev,
		InputHash: input.Hash,
		StorePath: best.StorePath,
		Hash:      best.Hash,
		Request:   entry.request,
	}, nil
}
