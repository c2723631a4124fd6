// Package config loads binmix settings from a YAML file.
//
// The file is read from os.UserConfigDir()/binmix/config.yaml, or from the
// path in BINMIX_CONFIG:
//
//	~/.config/binmix/config.yaml                        (Linux)
//	~/Library/Application Support/binmix/config.yaml    (macOS)
//	%AppData%/binmix/config.yaml                        (Windows)
//
// Every key is optional. A missing file yields the defaults. Settings only
// seed the command-line defaults, so an explicit flag always wins.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "binmix"

	// fileName is the settings file inside appDir.
	fileName = "config.yaml"
)

// Environment variables consulted by Load.
const (
	EnvConfig   = "BINMIX_CONFIG"
	EnvBuildDir = "BINMIX_BUILD_DIR"
	EnvEngine   = "BINMIX_ENGINE"
)

// Engine names.
const (
	EngineSoX    = "sox"
	EngineNative = "native"
)

// Config holds user settings.
type Config struct {
	BuildDir     string  `yaml:"build_dir"`
	BinauralGain float64 `yaml:"binaural_gain"`
	EffectGain   float64 `yaml:"effect_gain"`
	Engine       string  `yaml:"engine"`
	SoxPath      string  `yaml:"sox_path"`
	SoxiPath     string  `yaml:"soxi_path"`
	PlotSteps    int     `yaml:"plot_steps"`
	HumCheck     bool    `yaml:"hum_check"`

	// Path is the file the settings came from, empty if none was found.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BuildDir:     "build",
		BinauralGain: 0.5,
		EffectGain:   0.5,
		Engine:       EngineSoX,
		SoxPath:      "sox",
		SoxiPath:     "soxi",
		PlotSteps:    8,
		HumCheck:     true,
	}
}

// DefaultPath returns the settings file location, honouring BINMIX_CONFIG.
func DefaultPath() (string, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return path, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the default settings file and applies environment overrides.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		// No home directory is not fatal; fall back to defaults
		cfg := Default()
		cfg.applyEnv()
		return cfg, cfg.Validate()
	}
	return LoadFrom(path)
}

// LoadFrom reads path on top of the defaults and applies environment
// overrides. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Path = path
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBuildDir); v != "" {
		c.BuildDir = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		c.Engine = strings.ToLower(v)
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineSoX, EngineNative:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineSoX, EngineNative)
	}
	if c.BuildDir == "" {
		return errors.New("build_dir cannot be empty")
	}
	if c.PlotSteps < 2 {
		return fmt.Errorf("plot_steps must be at least 2, got %d", c.PlotSteps)
	}
	return nil
}

// Save writes c to path in YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
