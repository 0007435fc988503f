package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/fskit/internal/logging"
	"github.com/fenilsonani/fskit/internal/security"
	"github.com/fenilsonani/fskit/pkg/utils"
)

// Config represents the application configuration
type Config struct {
	Dedup   DedupConfig   `yaml:"dedup"`
	Hunt    HuntConfig    `yaml:"hunt"`
	Tree    TreeConfig    `yaml:"tree"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DedupConfig holds duplicate finder settings
type DedupConfig struct {
	MinSize        string   `yaml:"min_size"` // e.g., "1KB", "0" disables
	Ignore         []string `yaml:"ignore"`   // literal names, "name/" for directories
	Preview        bool     `yaml:"preview"`
	Workers        int      `yaml:"workers"` // 0 picks from CPU count
	DefaultAction  string   `yaml:"default_action"`
	ProtectedPaths []string `yaml:"protected_paths"`
}

// HuntConfig holds file search settings
type HuntConfig struct {
	Patterns []string `yaml:"patterns"`
	Ignore   []string `yaml:"ignore"`
	MinSize  string   `yaml:"min_size"`
}

// TreeConfig holds outline settings
type TreeConfig struct {
	IndentUnit int  `yaml:"indent_unit"`
	Force      bool `yaml:"force"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// HistoryConfig holds removal journal settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"` // empty means next to the config file
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path, empty disables
}

// Actions accepted by dedup.default_action and --action
const (
	ActionAsk       = "ask"
	ActionRemoveAll = "remove-all"
	ActionSaveFirst = "save-first"
	ActionSaveLast  = "save-last"
	ActionNone      = "none"
)

// ValidActions lists the accepted dedup actions
var ValidActions = []string{ActionAsk, ActionRemoveAll, ActionSaveFirst, ActionSaveLast, ActionNone}

// Load loads configuration from a file. Keys missing from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Dedup.MinSizeBytes(); err != nil {
		return fmt.Errorf("dedup.min_size: %w", err)
	}
	if c.Dedup.Workers < 0 {
		return fmt.Errorf("dedup.workers must be >= 0")
	}
	if !isValidAction(c.Dedup.DefaultAction) {
		return fmt.Errorf("dedup.default_action must be one of %s, got %q",
			strings.Join(ValidActions, ", "), c.Dedup.DefaultAction)
	}
	for _, name := range c.Dedup.Ignore {
		if name == "" || name == "/" {
			return fmt.Errorf("dedup.ignore entries must be names, got %q", name)
		}
	}

	// Protected paths must be absolute
	for _, path := range c.Dedup.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if _, err := c.Hunt.MinSizeBytes(); err != nil {
		return fmt.Errorf("hunt.min_size: %w", err)
	}
	for _, pattern := range c.Hunt.Patterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid hunt pattern '%s': %w", pattern, err)
		}
	}

	if c.Tree.IndentUnit <= 0 {
		return fmt.Errorf("tree.indent_unit must be > 0")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// MinSizeBytes parses MinSize; empty means 0
func (d DedupConfig) MinSizeBytes() (int64, error) {
	return parseOptionalSize(d.MinSize)
}

// MinSizeBytes parses MinSize; empty means 0
func (h HuntConfig) MinSizeBytes() (int64, error) {
	return parseOptionalSize(h.MinSize)
}

func parseOptionalSize(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return utils.ParseSize(s)
}

func isValidAction(action string) bool {
	for _, a := range ValidActions {
		if a == action {
			return true
		}
	}
	return false
}

// GetConfigDir returns the directory holding the config file and journal
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "fskit"), nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// HistoryPath resolves the journal location
func (c *Config) HistoryPath() (string, error) {
	if c.History.DBPath != "" {
		return expandHome(c.History.DBPath)
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "history.db"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
