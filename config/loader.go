package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "ontokn.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/ontokn"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// layer is one configuration file in precedence order.
type layer struct {
	name string
	path string
	// required layers fail the load when the file is missing
	required bool
}

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	// home and cwd are resolved from the process when empty
	home string
	cwd  string

	applied []string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load builds the run configuration. Later layers override earlier ones:
// defaults, the user file (~/.config/ontokn/config.yaml), the nearest
// ontokn.yaml in the working directory or its parents, and path when not
// empty. A file that exists but cannot be parsed is an error; so is a
// missing explicit file.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	l.applied = l.applied[:0]

	layers := []layer{
		{name: "user", path: l.userConfigPath()},
		{name: "project", path: l.findProjectConfig()},
		{name: "explicit", path: path, required: true},
	}
	for _, ly := range layers {
		if ly.path == "" {
			continue
		}
		next, err := LoadFromFile(ly.path)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist) && !ly.required:
			continue
		default:
			return nil, fmt.Errorf("%s config %s: %w", ly.name, ly.path, err)
		}
		cfg.Merge(next)
		l.applied = append(l.applied, ly.path)
		l.logger.Debug("Applied config layer", "layer", ly.name, "path", ly.path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Applied returns the files merged by the last Load, lowest precedence
// first.
func (l *Loader) Applied() []string {
	return append([]string(nil), l.applied...)
}

// EnsureUserConfig writes the default configuration to the user config file
// unless it already exists, and returns its path.
func (l *Loader) EnsureUserConfig() (string, error) {
	path := l.userConfigPath()
	if path == "" {
		return "", fmt.Errorf("no home directory")
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := DefaultConfig().SaveToFile(path); err != nil {
		return "", err
	}
	l.logger.Info("Created default user config", "path", path)
	return path, nil
}

func (l *Loader) userConfigPath() string {
	home := l.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig returns the nearest ontokn.yaml walking up from the
// working directory, or "".
func (l *Loader) findProjectConfig() string {
	dir := l.cwd
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
