package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	PortDefault      = 8080
	ScanDelayDefault = 1800 * time.Millisecond
	SoundURLDefault  = "https://www.soundjay.com/buttons/sounds/button-37a.mp3"
	LogLevelDefault  = "info"

	maxPort = 65535
)

// Config represents the dashboard config file.
type Config struct {
	// ModelPath is the forest artifact. Relative paths resolve against
	// the config directory.
	ModelPath   string        `yaml:"model_path"`
	Port        int           `yaml:"port"`
	ScanDelay   time.Duration `yaml:"scan_delay"`
	SoundURL    string        `yaml:"sound_url"`
	LogLevel    string        `yaml:"log_level"`
	OpenBrowser bool          `yaml:"open_browser"`
}

// Default returns the config written on first run.
func Default() *Config {
	return &Config{
		ModelPath:   "churn_forest.json",
		Port:        PortDefault,
		ScanDelay:   ScanDelayDefault,
		SoundURL:    SoundURLDefault,
		LogLevel:    LogLevelDefault,
		OpenBrowser: true,
	}
}

// Validate checks values that would otherwise fail at server start.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > maxPort {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ScanDelay < 0 {
		return fmt.Errorf("invalid scan delay: %s", c.ScanDelay)
	}
	return nil
}

// ResolveModelPath returns the absolute model path for the config in dir.
func (c *Config) ResolveModelPath(dir string) string {
	if c.ModelPath == "" || filepath.IsAbs(c.ModelPath) {
		return c.ModelPath
	}
	return filepath.Join(dir, c.ModelPath)
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Fields missing from the file keep their default values.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory under the user's home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
