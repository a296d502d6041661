// Package activate coordinates environment activation: realizing the locked
// environment, publishing the tree, registering the session and running the
// user's shell with a watchdog supervising its lifetime.
package activate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// State names the phases an activation moves through.
type State string

const (
	StateIdle        State = "idle"
	StateBuilding    State = "building"
	StateLive        State = "live"
	StateTerminating State = "terminating"
)

// WatchdogSpawner starts the detached watchdog process for an activation
// and returns its pid.
type WatchdogSpawner interface {
	Spawn(ctx context.Context, activation domain.Activation) (int, error)
}

// Request describes the environment to activate. The documents are the
// composite state for composing environments.
type Request struct {
	Dir      string
	Manifest *domain.Manifest
	Lockfile *domain.Lockfile

	// Command, when non-empty, runs instead of an interactive shell and
	// the activation ends when it exits.
	Command []string
}

// Coordinator drives activations.
type Coordinator struct {
	realizer ports.Realizer
	registry ports.ActivationRegistry
	executor ports.Executor
	spawner  WatchdogSpawner
	tracer   ports.Tracer
	logger   ports.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	realizer ports.Realizer,
	registry ports.ActivationRegistry,
	executor ports.Executor,
	spawner WatchdogSpawner,
	tracer ports.Tracer,
	logger ports.Logger,
) *Coordinator {
	return &Coordinator{
		realizer: realizer,
		registry: registry,
		executor: executor,
		spawner:  spawner,
		tracer:   tracer,
		logger:   logger,
	}
}

// Activate realizes and enters the environment. It blocks until the session
// ends and returns the session's error, if any.
func (c *Coordinator) Activate(ctx context.Context, req Request) error {
	platform := domain.CurrentPlatform()
	if req.Lockfile == nil {
		return zerr.With(zerr.New("environment is not locked"), "dir", req.Dir)
	}
	if len(req.Manifest.Install) > 0 && len(req.Lockfile.Packages[platform]) == 0 {
		return zerr.With(domain.ErrUnsupportedPlatform, "platform", platform)
	}

	c.transition(StateIdle, StateBuilding)
	ctx, span := c.tracer.Start(ctx, "realize "+platform)
	storePath, err := c.realizer.Realize(ctx, req.Lockfile, platform)
	if err != nil {
		span.RecordError(err)
		span.End()
		return err
	}
	span.End()

	if err := c.publish(req.Dir, platform, storePath); err != nil {
		return err
	}

	activation, cleanup, err := c.register(ctx, req.Dir, storePath)
	if err != nil {
		return err
	}
	defer cleanup()

	c.transition(StateBuilding, StateLive)
	err = c.runSession(ctx, req, activation)
	c.transition(StateLive, StateTerminating)
	return err
}

// publish atomically repoints the "current" link at the realized tree.
// Live sessions keep the store path they started with; only new sessions
// follow the link.
func (c *Coordinator) publish(dir, platform, storePath string) error {
	runDir := domain.RunDir(dir)
	if err := os.MkdirAll(runDir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create run directory")
	}

	tmp := filepath.Join(runDir, fmt.Sprintf(".current.%s.%d", platform, os.Getpid()))
	if err := os.Symlink(storePath, tmp); err != nil {
		return zerr.Wrap(err, "failed to stage current link")
	}
	if err := os.Rename(tmp, domain.CurrentLink(dir, platform)); err != nil {
		_ = os.Remove(tmp)
		return zerr.Wrap(err, "failed to publish current link")
	}
	return nil
}

// register creates the liveness FIFO, spawns the watchdog and records the
// activation. The returned cleanup tears all of it down; after a clean
// session end the watchdog has usually done so already.
func (c *Coordinator) register(ctx context.Context, dir, storePath string) (domain.Activation, func(), error) {
	envDir, err := filepath.Abs(dir)
	if err != nil {
		return domain.Activation{}, nil, zerr.Wrap(err, "failed to resolve environment directory")
	}

	activation := domain.Activation{
		ID:        uuid.NewString(),
		EnvID:     domain.EnvID(envDir),
		EnvDir:    envDir,
		StorePath: storePath,
		StartedAt: time.Now(),
	}
	activation.FifoPath = filepath.Join(domain.RunDir(dir), "activation-"+activation.ID+".fifo")

	if err := syscall.Mkfifo(activation.FifoPath, uint32(domain.PrivateFilePerm)); err != nil {
		return domain.Activation{}, nil, zerr.Wrap(err, "failed to create liveness fifo")
	}

	pid, err := c.spawner.Spawn(ctx, activation)
	if err != nil {
		_ = os.Remove(activation.FifoPath)
		return domain.Activation{}, nil, err
	}
	activation.WatchdogPID = pid

	if err := c.registry.Register(ctx, activation); err != nil {
		_ = os.Remove(activation.FifoPath)
		return domain.Activation{}, nil, err
	}

	cleanup := func() {
		if err := c.registry.Deregister(context.Background(), activation.EnvID, activation.ID); err != nil {
			c.logger.Warn("failed to deregister activation: " + err.Error())
		}
		_ = os.Remove(activation.FifoPath)
	}
	return activation, cleanup, nil
}

// runSession runs the activation hook and then the session command, holding
// the FIFO write end open for the session's lifetime so the watchdog can
// observe its end.
func (c *Coordinator) runSession(ctx context.Context, req Request, activation domain.Activation) error {
	fifo, err := os.OpenFile(activation.FifoPath, os.O_WRONLY, 0)
	if err != nil {
		return zerr.Wrap(err, "failed to open liveness fifo")
	}
	defer func() {
		_ = fifo.Close()
	}()

	env := sessionEnv(req.Manifest, activation)

	if hook := req.Manifest.Hook.OnActivate; hook != "" {
		if err := c.executor.Run(ctx, []string{"/bin/sh", "-c", hook}, ports.RunOptions{
			Dir: activation.EnvDir,
			Env: env,
		}); err != nil {
			return zerr.Wrap(err, "activation hook failed")
		}
	}

	argv := req.Command
	if len(argv) == 0 {
		argv = []string{userShell()}
	}
	c.logger.Info("entering environment " + activation.EnvDir)
	return c.executor.Run(ctx, argv, ports.RunOptions{
		Dir:         activation.EnvDir,
		Env:         env,
		Interactive: true,
		ExtraFiles:  []*os.File{fifo},
	})
}

// sessionEnv layers the environment for the session: the invoking process's
// environment, the manifest's vars, then the realized tree's bin on PATH.
func sessionEnv(manifest *domain.Manifest, activation domain.Activation) []string {
	env := os.Environ()

	keys := make([]string, 0, len(manifest.Vars))
	for k := range manifest.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = setEnv(env, k, manifest.Vars[k])
	}

	env = setEnv(env, "PATH", filepath.Join(activation.StorePath, "bin")+":"+lookupEnv(env, "PATH"))
	env = setEnv(env, "GROVE_ENV", activation.EnvDir)
	env = setEnv(env, "GROVE_ACTIVATION_ID", activation.ID)
	return env
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

func lookupEnv(env []string, key string) string {
	prefix := key + "="
	for _, kv := range env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			return kv[len(prefix):]
		}
	}
	return ""
}

func userShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

func (c *Coordinator) transition(from, to State) {
	c.logger.Info(fmt.Sprintf("activation %s -> %s", from, to))
}
