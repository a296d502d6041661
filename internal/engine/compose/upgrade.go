package compose

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
)

// UpgradeOutcome is the result of evaluating one included environment.
type UpgradeOutcome struct {
	Name    string
	Changed bool
	Err     error
}

// UpgradeReport lists per-include outcomes in include-list order.
type UpgradeReport struct {
	Entries []UpgradeOutcome
}

// Failed reports whether any include lookup failed.
func (r UpgradeReport) Failed() bool {
	for _, e := range r.Entries {
		if e.Err != nil {
			return true
		}
	}
	return false
}

// String renders the per-include outcome lines. "No changes" is a normal
// outcome, not a failure.
func (r UpgradeReport) String() string {
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		switch {
		case e.Err != nil:
			lines = append(lines, fmt.Sprintf("Failed to check '%s': %v", e.Name, e.Err))
		case e.Changed:
			lines = append(lines, fmt.Sprintf("Upgraded '%s'", e.Name))
		default:
			lines = append(lines, fmt.Sprintf("'%s' has no changes", e.Name))
		}
	}
	return strings.Join(lines, "\n")
}

// Upgrade re-evaluates the selected included environments (all of them when
// names is empty): each is refetched and refingerprinted; only those whose
// fingerprint changed have their cached contribution replaced. Includes are
// evaluated independently; one failed lookup does not abort the others, it
// is reported and that include keeps its cached state.
func (r *Resolver) Upgrade(
	ctx context.Context,
	composer *domain.Manifest,
	prior *domain.Lockfile,
	names []string,
) (*Composition, UpgradeReport, error) {
	selected, err := selection(composer, names)
	if err != nil {
		return nil, UpgradeReport{}, err
	}

	var report UpgradeReport
	includes := make([]domain.LockedInclude, 0, len(composer.Include))
	for _, desc := range composer.Include {
		name := desc.DisplayName()
		cached, haveCached := cachedInclude(prior, desc)

		if _, ok := selected[name]; !ok {
			if haveCached {
				includes = append(includes, cached)
				continue
			}
			// Never merged before; it has to be fetched regardless of
			// the selection, but the report only covers selected names.
			fetched, fetchErr := r.fetchInclude(ctx, desc)
			if fetchErr != nil {
				return nil, UpgradeReport{}, fetchErr
			}
			includes = append(includes, fetched)
			continue
		}

		fetched, fetchErr := r.fetchInclude(ctx, desc)
		if fetchErr != nil {
			report.Entries = append(report.Entries, UpgradeOutcome{Name: name, Err: fetchErr})
			if haveCached {
				includes = append(includes, cached)
			}
			continue
		}

		if haveCached && fetched.Fingerprint == cached.Fingerprint {
			report.Entries = append(report.Entries, UpgradeOutcome{Name: name})
			includes = append(includes, cached)
			continue
		}

		r.logger.Info(fmt.Sprintf("include '%s' has changes, merging", name))
		report.Entries = append(report.Entries, UpgradeOutcome{Name: name, Changed: true})
		includes = append(includes, fetched)
	}

	return buildComposition(composer, prior, includes), report, nil
}

// selection expands the requested names, defaulting to every include, and
// rejects names that match no include directive.
func selection(composer *domain.Manifest, names []string) (map[string]struct{}, error) {
	known := make(map[string]struct{}, len(composer.Include))
	for _, desc := range composer.Include {
		known[desc.DisplayName()] = struct{}{}
	}

	if len(names) == 0 {
		return known, nil
	}

	selected := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := known[name]; !ok {
			return nil, zerr.With(domain.ErrIncludeNotFound, "name", name)
		}
		selected[name] = struct{}{}
	}
	return selected, nil
}
