package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/adapters/remote"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

func TestPullLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/envs/acme/base/generations/latest", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number":   7,
			"manifest": []byte("version = 1\n"),
		})
	}))
	defer srv.Close()

	client := remote.New(srv.URL, time.Second, nopLogger{})
	gen, err := client.Pull(context.Background(), "acme", "base", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, gen.Number)
	assert.Equal(t, "version = 1\n", string(gen.Manifest))
}

func TestPullSpecificGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/envs/acme/base/generations/3", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 3})
	}))
	defer srv.Close()

	client := remote.New(srv.URL, time.Second, nopLogger{})
	gen, err := client.Pull(context.Background(), "acme", "base", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, gen.Number)
}

func TestPullMissingGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := remote.New(srv.URL, time.Second, nopLogger{})
	_, err := client.Pull(context.Background(), "acme", "base", 99)
	require.ErrorIs(t, err, domain.ErrGenerationNotFound)
}

func TestPushReturnsNewGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/envs/acme/base/generations", r.URL.Path)

		var req struct {
			Parent int  `json:"parent"`
			Force  bool `json:"force"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 7, req.Parent)
		assert.False(t, req.Force)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int{"number": 8})
	}))
	defer srv.Close()

	client := remote.New(srv.URL, time.Second, nopLogger{})
	n, err := client.Push(context.Background(), "acme", "base", ports.Generation{Number: 7, Manifest: []byte("version = 1\n")}, false)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestPushConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "remote head advanced", http.StatusConflict)
	}))
	defer srv.Close()

	client := remote.New(srv.URL, time.Second, nopLogger{})
	_, err := client.Push(context.Background(), "acme", "base", ports.Generation{Number: 7}, false)
	require.ErrorIs(t, err, domain.ErrRemoteSyncConflict)
}
