package domain

import "time"

// Activation is one live shell session inside a published environment.
// Entries are shared by all processes activating the same environment and
// are mutated only under the registry lock.
type Activation struct {
	// ID uniquely identifies this activation.
	ID string `json:"id"`

	// EnvID identifies the environment (see EnvID).
	EnvID string `json:"env_id"`

	// EnvDir is the environment directory the activation was started from.
	EnvDir string `json:"env_dir"`

	// StorePath is the realized tree this session runs against. Rebuilds
	// publish new trees; live sessions keep the one they started with.
	StorePath string `json:"store_path"`

	// FifoPath is the liveness channel: a FIFO whose write end the shell
	// session holds open. The watchdog observes EOF when the shell exits.
	FifoPath string `json:"fifo_path"`

	// WatchdogPID is the watchdog process supervising this activation.
	WatchdogPID int `json:"watchdog_pid"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`
}

// Config is the user-level grove configuration.
type Config struct {
	// CatalogURL is the base URL of the package catalog service.
	CatalogURL string

	// HubURL is the base URL of the remote environment hub.
	HubURL string

	// Platforms is the set of platforms environments are locked for.
	Platforms []string

	// BuilderCommand is the external builder invoked to realize lockfiles.
	BuilderCommand string

	// LockTimeout bounds waiting for the environment mutation lock.
	LockTimeout time.Duration

	// HTTPTimeout bounds catalog and hub network calls.
	HTTPTimeout time.Duration
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		CatalogURL:     "https://catalog.grove.dev",
		HubURL:         "https://hub.grove.dev",
		Platforms:      DefaultPlatforms,
		BuilderCommand: "grove-buildenv",
		LockTimeout:    10 * time.Second,
		HTTPTimeout:    30 * time.Second,
	}
}
