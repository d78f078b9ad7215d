package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "tunerbridge"
	configFile = "config.yaml"
)

// Defaults applied when the config file is missing or fields are unset.
const (
	DefaultListenAddr       = "127.0.0.1:7780"
	DefaultRefreshInterval  = 3600 // seconds, lineup refresh cycle
	DefaultDiscoverInterval = 300  // seconds, between discovery scans
	DefaultScanTimeout      = 10   // seconds, per mDNS browse
	DefaultFetchTimeout     = 5    // seconds, per lineup HTTP request
	DefaultLostAfterMisses  = 3    // consecutive scans before a device is reported lost
)

// Settings is the daemon configuration loaded from the YAML config file.
type Settings struct {
	// ListenAddr is the address the control API binds to.
	ListenAddr string `yaml:"listen_addr,omitempty"`

	// RefreshInterval is the periodic lineup reconciliation interval in seconds.
	RefreshInterval int `yaml:"refresh_interval,omitempty"`

	// DiscoverInterval is the interval between discovery scans in seconds.
	DiscoverInterval int `yaml:"discover_interval,omitempty"`

	// ScanTimeout is the mDNS browse window in seconds.
	ScanTimeout int `yaml:"scan_timeout,omitempty"`

	// FetchTimeout is the per-device HTTP timeout in seconds.
	FetchTimeout int `yaml:"fetch_timeout,omitempty"`

	// LostAfterMisses is how many consecutive scans a device may miss
	// before it is reported lost. Zero disables lost reporting.
	LostAfterMisses int `yaml:"lost_after_misses,omitempty"`

	// RadioOnly keeps only channels that look like radio stations.
	RadioOnly bool `yaml:"radio_only,omitempty"`

	// LogLevel sets daemon log verbosity ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level,omitempty"`

	// StaticDevices seed the device table at startup without waiting for
	// discovery. Useful for devices on routed segments mDNS cannot reach.
	StaticDevices []StaticDevice `yaml:"static_devices,omitempty"`
}

// StaticDevice is a manually configured tuner address.
type StaticDevice struct {
	Address string `yaml:"address"`        // host or host:port
	Name    string `yaml:"name,omitempty"` // optional friendly name
}

// NewSettings returns Settings populated with defaults.
func NewSettings() *Settings {
	return &Settings{
		ListenAddr:       DefaultListenAddr,
		RefreshInterval:  DefaultRefreshInterval,
		DiscoverInterval: DefaultDiscoverInterval,
		ScanTimeout:      DefaultScanTimeout,
		FetchTimeout:     DefaultFetchTimeout,
		LostAfterMisses:  DefaultLostAfterMisses,
		RadioOnly:        true,
	}
}

// GetConfigDir returns the OS-appropriate configuration directory.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/tunerbridge or $HOME/.config/tunerbridge
//   - macOS: $HOME/.config/tunerbridge (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\tunerbridge
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration file at path. An empty path loads the
// default location; a missing file yields default settings.
func Load(path string) (*Settings, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse unmarshals settings from YAML, fills defaults, and validates.
func Parse(data []byte) (*Settings, error) {
	settings := NewSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Validate checks settings for values the engine cannot run with.
func (s *Settings) Validate() error {
	if s.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be a positive number of seconds, got %d", s.RefreshInterval)
	}
	if s.DiscoverInterval <= 0 {
		return fmt.Errorf("discover_interval must be a positive number of seconds, got %d", s.DiscoverInterval)
	}
	if s.ScanTimeout <= 0 {
		return fmt.Errorf("scan_timeout must be a positive number of seconds, got %d", s.ScanTimeout)
	}
	if s.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be a positive number of seconds, got %d", s.FetchTimeout)
	}
	if s.LostAfterMisses < 0 {
		return fmt.Errorf("lost_after_misses must not be negative, got %d", s.LostAfterMisses)
	}
	for i, dev := range s.StaticDevices {
		if dev.Address == "" {
			return fmt.Errorf("static_devices[%d]: address is required", i)
		}
	}
	return nil
}

// RefreshIntervalDuration returns the refresh interval as a time.Duration.
func (s *Settings) RefreshIntervalDuration() time.Duration {
	return time.Duration(s.RefreshInterval) * time.Second
}

// DiscoverIntervalDuration returns the discovery interval as a time.Duration.
func (s *Settings) DiscoverIntervalDuration() time.Duration {
	return time.Duration(s.DiscoverInterval) * time.Second
}

// ScanTimeoutDuration returns the mDNS browse window as a time.Duration.
func (s *Settings) ScanTimeoutDuration() time.Duration {
	return time.Duration(s.ScanTimeout) * time.Second
}

// FetchTimeoutDuration returns the HTTP fetch timeout as a time.Duration.
func (s *Settings) FetchTimeoutDuration() time.Duration {
	return time.Duration(s.FetchTimeout) * time.Second
}
