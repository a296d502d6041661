package ports

import (
	"context"

	"go.trai.ch/grove/internal/core/domain"
)

//go:generate mockgen -source=catalog.go -destination=mocks/mock_catalog.go -package=mocks

// ResolveRequest asks the catalog for candidate builds of one package
// request on one platform, against a pinned input snapshot.
type ResolveRequest struct {
	Request  domain.PackageRequest
	Platform string
	Input    domain.Input
}

// Candidate is one resolvable build returned by the catalog, best first.
type Candidate struct {
	AttrPath    string
	Version     string
	Platform    string
	StorePath   string
	Hash        string
	Description string
}

// CatalogClient is the external package catalog. Both operations are
// idempotent and safe to retry; retries are the adapter's concern.
type CatalogClient interface {
	// Snapshot returns the latest snapshot of the named input.
	Snapshot(ctx context.Context, input string) (domain.Input, error)

	// Resolve returns ranked candidates for the request, or an empty slice
	// when the catalog has none.
	Resolve(ctx context.Context, req ResolveRequest) ([]Candidate, error)
}
