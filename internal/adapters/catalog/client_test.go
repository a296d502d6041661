package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/adapters/catalog"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

func TestSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/inputs/nixpkgs", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url":  "github:NixOS/nixpkgs",
			"rev":  "abc123",
			"hash": "sha256-xyz",
		})
	}))
	defer srv.Close()

	client := catalog.New(srv.URL, time.Second, nil, nopLogger{})
	in, err := client.Snapshot(context.Background(), "nixpkgs")
	require.NoError(t, err)
	assert.Equal(t, domain.Input{URL: "github:NixOS/nixpkgs", Rev: "abc123", Hash: "sha256-xyz"}, in)
}

func TestResolveRanksCandidatesByVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hello", r.URL.Query().Get("path"))
		assert.Equal(t, "x86_64-linux", r.URL.Query().Get("platform"))
		assert.Equal(t, "rev1", r.URL.Query().Get("rev"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []ports.Candidate{
				{AttrPath: "hello", Version: "2.10"},
				{AttrPath: "hello", Version: "2.12.1"},
				{AttrPath: "hello", Version: "2.12"},
			},
		})
	}))
	defer srv.Close()

	client := catalog.New(srv.URL, time.Second, nil, nopLogger{})
	candidates, err := client.Resolve(context.Background(), ports.ResolveRequest{
		Request:  domain.PackageRequest{Path: "hello"},
		Platform: "x86_64-linux",
		Input:    domain.Input{Rev: "rev1"},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "2.12.1", candidates[0].Version)
	assert.Equal(t, "2.12", candidates[1].Version)
	assert.Equal(t, "2.10", candidates[2].Version)
}

func TestResolveRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []ports.Candidate{{AttrPath: "hello"}}})
	}))
	defer srv.Close()

	client := catalog.New(srv.URL, time.Second, nil, nopLogger{})
	candidates, err := client.Resolve(context.Background(), ports.ResolveRequest{
		Request:  domain.PackageRequest{Path: "hello"},
		Platform: "x86_64-linux",
	})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 2, calls)
}

func TestResolveDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "no such attribute", http.StatusNotFound)
	}))
	defer srv.Close()

	client := catalog.New(srv.URL, time.Second, nil, nopLogger{})
	_, err := client.Resolve(context.Background(), ports.ResolveRequest{
		Request:  domain.PackageRequest{Path: "nope"},
		Platform: "x86_64-linux",
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestResolveUsesCache(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []ports.Candidate{{AttrPath: "hello", Version: "2.12.1"}},
		})
	}))
	defer srv.Close()

	cache, err := catalog.OpenCache(filepath.Join(t.TempDir(), "resolve.db"))
	require.NoError(t, err)
	defer cache.Close()

	client := catalog.New(srv.URL, time.Second, cache, nopLogger{})
	req := ports.ResolveRequest{
		Request:  domain.PackageRequest{Path: "hello"},
		Platform: "x86_64-linux",
		Input:    domain.Input{Rev: "rev1"},
	}

	for i := 0; i < 3; i++ {
		candidates, err := client.Resolve(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
	}
	assert.Equal(t, 1, calls, "repeat resolutions against the same snapshot hit the cache")

	// A different snapshot revision misses the cache.
	req.Input.Rev = "rev2"
	_, err = client.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
