// Package config loads the mudra service configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/recognizer"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// maxFileSize bounds the configuration file read by Load.
const maxFileSize = 1 << 20

// Config is the root service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	DataDir string        `yaml:"data_dir" json:"data_dir"`
	DBPath  string        `yaml:"db_path,omitempty" json:"db_path,omitempty"`
	Plugins PluginConfig  `yaml:"plugins" json:"plugins"`
	Camera  CameraConfig  `yaml:"camera" json:"camera"`
	History HistoryConfig `yaml:"history" json:"history"`
	Tray    bool          `yaml:"tray" json:"tray"`

	// Recognizers replaces the built-in recognizer set when non-empty.
	// Profiles stored in the database are registered after these.
	Recognizers []recognizer.Profile `yaml:"recognizers,omitempty" json:"recognizers,omitempty"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir,omitempty" json:"static_dir,omitempty"`
}

// PluginConfig configures action plugin discovery.
type PluginConfig struct {
	Dir     string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Timeout int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// CameraConfig configures the hand-tracking pointer source.
type CameraConfig struct {
	Enabled  bool    `yaml:"enabled" json:"enabled"`
	DeviceID int     `yaml:"device_id" json:"device_id"`
	Width    int     `yaml:"width" json:"width"`
	Height   int     `yaml:"height" json:"height"`
	FPS      int     `yaml:"fps" json:"fps"`
	Smooth   bool    `yaml:"smooth" json:"smooth"`
	PinchGap float64 `yaml:"pinch_gap" json:"pinch_gap"`
}

// HistoryConfig configures event recording.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Keep    int  `yaml:"keep" json:"keep"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		DataDir: dataDir,
		Plugins: PluginConfig{Timeout: 5000},
		Camera: CameraConfig{
			Width:    640,
			Height:   480,
			FPS:      30,
			Smooth:   true,
			PinchGap: 0.25,
		},
		History: HistoryConfig{Enabled: true, Keep: 1000},
		Tray:    false,
	}
}

// Load reads the configuration at path on top of Default. The format is
// chosen by extension: .yaml, .yml or .json.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(cleanPath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server address is required", ErrInvalid)
	}
	if c.DataDir == "" && c.DBPath == "" {
		return fmt.Errorf("%w: data_dir or db_path is required", ErrInvalid)
	}
	if c.Plugins.Timeout < 0 {
		return fmt.Errorf("%w: plugin timeout must not be negative", ErrInvalid)
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("%w: history keep must not be negative", ErrInvalid)
	}
	if c.Camera.Enabled {
		if c.Camera.FPS <= 0 {
			return fmt.Errorf("%w: camera fps must be positive", ErrInvalid)
		}
		if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
			return fmt.Errorf("%w: camera resolution must be positive", ErrInvalid)
		}
		if c.Camera.PinchGap <= 0 || c.Camera.PinchGap >= 1 {
			return fmt.Errorf("%w: camera pinch gap must be in (0, 1)", ErrInvalid)
		}
	}

	seen := make(map[string]bool, len(c.Recognizers))
	for _, p := range c.Recognizers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		name := p.Name
		if name == "" {
			name = string(p.Family)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate recognizer %q", ErrInvalid, name)
		}
		seen[name] = true
	}

	return nil
}

// DatabasePath returns the SQLite file path.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "mudra.db")
}

// PluginDir returns the directory scanned for action plugins.
func (c *Config) PluginDir() string {
	if c.Plugins.Dir != "" {
		return c.Plugins.Dir
	}
	return filepath.Join(c.DataDir, "plugins")
}
