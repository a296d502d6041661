// Package config provides the configuration loader for grove.
package config

import (
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// FileName is the configuration file name under the user config directory.
const FileName = "config.yaml"

// grovefile is the YAML schema of the user configuration file. Every field
// is optional; unset fields keep their defaults. Timeouts use Go duration
// syntax ("10s", "1m").
type grovefile struct {
	CatalogURL     string   `yaml:"catalog_url"`
	HubURL         string   `yaml:"hub_url"`
	Platforms      []string `yaml:"platforms"`
	BuilderCommand string   `yaml:"builder_command"`
	LockTimeout    string   `yaml:"lock_timeout"`
	HTTPTimeout    string   `yaml:"http_timeout"`
}

// FileConfigLoader implements ports.ConfigLoader using a YAML file in the
// user config directory.
type FileConfigLoader struct {
	// Path overrides the default location when non-empty. Used by tests.
	Path string
}

// NewLoader creates a loader reading from the default location.
func NewLoader() *FileConfigLoader {
	return &FileConfigLoader{}
}

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// Load reads the user configuration, falling back to defaults when the file
// does not exist. A file that exists but fails to parse is an error rather
// than a silent fallback.
func (l *FileConfigLoader) Load() (*domain.Config, error) {
	path := l.Path
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return domain.DefaultConfig(), nil
		}
		path = filepath.Join(dir, "grove", FileName)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if os.IsNotExist(err) {
		return domain.DefaultConfig(), nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file grovefile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
	}

	cfg := domain.DefaultConfig()
	if file.CatalogURL != "" {
		cfg.CatalogURL = file.CatalogURL
	}
	if file.HubURL != "" {
		cfg.HubURL = file.HubURL
	}
	if len(file.Platforms) > 0 {
		cfg.Platforms = file.Platforms
	}
	if file.BuilderCommand != "" {
		cfg.BuilderCommand = file.BuilderCommand
	}
	if file.LockTimeout != "" {
		d, err := time.ParseDuration(file.LockTimeout)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid lock_timeout"), "path", path)
		}
		cfg.LockTimeout = d
	}
	if file.HTTPTimeout != "" {
		d, err := time.ParseDuration(file.HTTPTimeout)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid http_timeout"), "path", path)
		}
		cfg.HTTPTimeout = d
	}
	return cfg, nil
}
