package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AppName is used for the config directory and file name
const AppName = "jdkauto"

// Config holds the application configuration
type Config struct {
	CustomPaths       []string       `json:"custom_paths"`                 // Specific JDK homes to always consider
	SearchPaths       []string       `json:"search_paths"`                 // Base directories whose children are JDK homes
	SettingsPath      string         `json:"settings_path,omitempty"`      // VS Code user settings.json
	StorageRoot       string         `json:"storage_root,omitempty"`       // Where downloaded JDKs live
	ExtensionsDir     string         `json:"extensions_dir,omitempty"`     // VS Code extensions directory
	SupportedRuntimes []string       `json:"supported_runtimes,omitempty"` // Fallback when the Java extension is not installed
	Download          DownloadConfig `json:"download"`                     // JDK download settings
	UpdateConfig      UpdateConfig   `json:"update_config"`                // Auto-update configuration
	configPath        string
}

// DownloadConfig controls which JDKs are fetched when missing
type DownloadConfig struct {
	Enabled      bool   `json:"enabled"`
	Versions     []int  `json:"versions,omitempty"` // Explicit major versions; empty means newest LTS lines
	MaxLTS       int    `json:"max_lts,omitempty"`  // Newest LTS lines to keep; 0 leaves it to the engine
	Distribution string `json:"distribution,omitempty"`
}

// UpdateConfig holds settings for auto-update feature
type UpdateConfig struct {
	Enabled     bool      `json:"enabled"`      // Master toggle for update functionality
	AutoCheck   bool      `json:"auto_check"`   // Check for updates on startup
	LastCheck   time.Time `json:"last_check"`   // Last time update check was performed
	SkipVersion string    `json:"skip_version"` // Version user chose to skip
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads the configuration from configPath. A missing file yields
// the defaults.
func LoadFrom(configPath string) (*Config, error) {
	cfg := &Config{
		CustomPaths: make([]string, 0),
		SearchPaths: make([]string, 0),
		Download: DownloadConfig{
			Enabled:      true,
			Distribution: "temurin",
		},
		UpdateConfig: UpdateConfig{
			Enabled:   true,
			AutoCheck: true,
		},
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Remove BOM if present (UTF-8 BOM is EF BB BF)
	// This handles files created by PowerShell with Set-Content -Encoding UTF8
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.CustomPaths = cleanPaths(cfg.CustomPaths)
	cfg.SearchPaths = cleanPaths(cfg.SearchPaths)
	if cfg.Download.Distribution == "" {
		cfg.Download.Distribution = "temurin"
	}

	cfg.configPath = configPath
	return cfg, nil
}

// cleanPaths drops empty entries and case-insensitive duplicates
func cleanPaths(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	seen := make(map[string]bool)
	for _, p := range paths {
		p = filepath.Clean(strings.TrimSpace(p))
		if p == "" || p == "." {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, p)
	}
	return cleaned
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// ConfigPath returns the file this configuration was loaded from
func (c *Config) ConfigPath() string {
	return c.configPath
}

// JDKStorageRoot returns the directory holding downloaded JDKs
func (c *Config) JDKStorageRoot() string {
	if c.StorageRoot != "" {
		return filepath.Clean(c.StorageRoot)
	}
	return filepath.Join(filepath.Dir(c.configPath), "jdk")
}

// AddCustomPath adds a specific JDK home path
func (c *Config) AddCustomPath(path string) {
	c.CustomPaths = addPath(c.CustomPaths, path)
}

// RemoveCustomPath removes a specific JDK home path
func (c *Config) RemoveCustomPath(path string) bool {
	var removed bool
	c.CustomPaths, removed = removePath(c.CustomPaths, path)
	return removed
}

// HasCustomPath checks if a path exists in custom paths
func (c *Config) HasCustomPath(path string) bool {
	return hasPath(c.CustomPaths, path)
}

// AddSearchPath adds a search path for auto-detection
func (c *Config) AddSearchPath(path string) {
	c.SearchPaths = addPath(c.SearchPaths, path)
}

// RemoveSearchPath removes a search path
func (c *Config) RemoveSearchPath(path string) bool {
	var removed bool
	c.SearchPaths, removed = removePath(c.SearchPaths, path)
	return removed
}

// HasSearchPath checks if a path exists in search paths
func (c *Config) HasSearchPath(path string) bool {
	return hasPath(c.SearchPaths, path)
}

func addPath(paths []string, path string) []string {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." || hasPath(paths, path) {
		return paths
	}
	return append(paths, path)
}

func removePath(paths []string, path string) ([]string, bool) {
	path = filepath.Clean(path)
	for i, p := range paths {
		if strings.EqualFold(p, path) {
			return append(paths[:i], paths[i+1:]...), true
		}
	}
	return paths, false
}

func hasPath(paths []string, path string) bool {
	path = filepath.Clean(path)
	for _, p := range paths {
		if strings.EqualFold(p, path) {
			return true
		}
	}
	return false
}

// Path returns the path to the configuration file.
// JDKAUTO_CONFIG wins; otherwise the XDG Base Directory specification is followed.
func Path() string {
	if p := os.Getenv("JDKAUTO_CONFIG"); p != "" {
		return p
	}

	// Try XDG_CONFIG_HOME first (standard on Unix systems)
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, AppName+".json")
	}

	// Fallback to $HOME/.config/jdkauto/jdkauto.json (XDG default)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return filepath.Join(homeDir, ".config", AppName, AppName+".json")
}
