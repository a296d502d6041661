// Package registry tracks live activations per environment in a JSON file
// shared by all grove processes on this host.
package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// lockTimeout bounds registry lock acquisition. Registry critical sections
// are tiny, so a short wait is plenty.
const lockTimeout = 5 * time.Second

// Registry implements ports.ActivationRegistry on a JSON file guarded by a
// file lock.
type Registry struct {
	dir    string
	locker ports.Locker
	logger ports.Logger
}

// New creates a Registry storing state under dir.
func New(dir string, locker ports.Locker, logger ports.Logger) *Registry {
	return &Registry{dir: dir, locker: locker, logger: logger}
}

// DefaultDir returns the per-user registry directory.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate user cache directory")
	}
	return filepath.Join(dir, "grove"), nil
}

var _ ports.ActivationRegistry = (*Registry)(nil)

type document struct {
	Activations map[string][]domain.Activation `json:"activations"`
}

func (r *Registry) filePath() string {
	return filepath.Join(r.dir, domain.RegistryFileName)
}

func (r *Registry) lockPath() string {
	return filepath.Join(r.dir, domain.RegistryLockFileName)
}

// Register records a new activation.
func (r *Registry) Register(ctx context.Context, activation domain.Activation) error {
	return r.update(ctx, func(doc *document) {
		doc.Activations[activation.EnvID] = append(doc.Activations[activation.EnvID], activation)
	})
}

// Deregister removes an activation. Removing an absent entry is not an
// error; the watchdog and a stale sweep may race benignly.
func (r *Registry) Deregister(ctx context.Context, envID, activationID string) error {
	return r.update(ctx, func(doc *document) {
		entries := doc.Activations[envID]
		kept := entries[:0]
		for _, a := range entries {
			if a.ID != activationID {
				kept = append(kept, a)
			}
		}
		if len(kept) == 0 {
			delete(doc.Activations, envID)
		} else {
			doc.Activations[envID] = kept
		}
	})
}

// List returns the live activations for an environment. Entries whose
// watchdog process is gone are swept out of the registry as a side effect.
func (r *Registry) List(ctx context.Context, envID string) ([]domain.Activation, error) {
	var live []domain.Activation
	err := r.update(ctx, func(doc *document) {
		entries := doc.Activations[envID]
		kept := entries[:0]
		for _, a := range entries {
			if !processAlive(a.WatchdogPID) {
				r.logger.Warn("sweeping stale activation " + a.ID)
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			delete(doc.Activations, envID)
		} else {
			doc.Activations[envID] = kept
		}
		live = append([]domain.Activation(nil), kept...)
	})
	if err != nil {
		return nil, err
	}
	return live, nil
}

// update runs fn on the registry document under the registry lock and
// persists the result.
func (r *Registry) update(ctx context.Context, fn func(*document)) error {
	if err := os.MkdirAll(r.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create registry directory")
	}

	release, err := r.locker.Acquire(ctx, r.lockPath(), lockTimeout)
	if err != nil {
		return err
	}
	defer func() {
		_ = release()
	}()

	doc, err := r.load()
	if err != nil {
		return err
	}
	fn(doc)
	return r.save(doc)
}

func (r *Registry) load() (*document, error) {
	doc := &document{Activations: map[string][]domain.Activation{}}
	data, err := os.ReadFile(r.filePath())
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read activation registry")
	}
	if err := json.Unmarshal(data, doc); err != nil {
		// A corrupt registry only loses liveness bookkeeping; start fresh
		// rather than wedging every activation on this host.
		r.logger.Warn("activation registry is corrupt, resetting: " + err.Error())
		return &document{Activations: map[string][]domain.Activation{}}, nil
	}
	if doc.Activations == nil {
		doc.Activations = map[string][]domain.Activation{}
	}
	return doc, nil
}

func (r *Registry) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode activation registry")
	}

	tmp, err := os.CreateTemp(r.dir, ".registry.*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write activation registry")
	}
	if err := tmp.Chmod(domain.PrivateFilePerm); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to chmod activation registry")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmp.Name(), r.filePath()); err != nil {
		return zerr.Wrap(err, "failed to replace activation registry")
	}
	return nil
}

// processAlive reports whether pid exists. Signal 0 performs the permission
// and existence checks without delivering anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
