package settings

import (
	"os"
	"path/filepath"
	"runtime"
)

// Discovery finds the VS Code user directories.
type Discovery struct {
	homeDir string
	goos    string
}

// NewDiscovery creates a discovery for the current user and platform
func NewDiscovery() *Discovery {
	home, _ := os.UserHomeDir()
	return &Discovery{homeDir: home, goos: runtime.GOOS}
}

// NewDiscoveryWithOS creates a discovery with a specific home and OS (for testing)
func NewDiscoveryWithOS(home, goos string) *Discovery {
	return &Discovery{homeDir: home, goos: goos}
}

// SettingsPath returns the user settings.json location.
// VSCODE_PORTABLE wins over the platform default.
func (d *Discovery) SettingsPath() string {
	if portable := os.Getenv("VSCODE_PORTABLE"); portable != "" {
		return filepath.Join(portable, "user-data", "User", "settings.json")
	}
	return filepath.Join(d.userDir(), "settings.json")
}

// ExtensionsDir returns the directory holding installed extensions
func (d *Discovery) ExtensionsDir() string {
	if portable := os.Getenv("VSCODE_PORTABLE"); portable != "" {
		return filepath.Join(portable, "extensions")
	}
	return filepath.Join(d.homeDir, ".vscode", "extensions")
}

func (d *Discovery) userDir() string {
	switch d.goos {
	case "darwin":
		return filepath.Join(d.homeDir, "Library", "Application Support", "Code", "User")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(d.homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Code", "User")
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(d.homeDir, ".config")
		}
		return filepath.Join(configHome, "Code", "User")
	}
}
