// Package config provides configuration management for the gesture service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"gesturehook/internal/gesture"
)

// AppName names the per-user configuration directory
const AppName = "gesturehook"

// Config represents the application configuration
type Config struct {
	// Gesture contains the recognizer settings
	Gesture GestureConfig `json:"gesture"`

	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// GestureConfig contains recognizer settings
type GestureConfig struct {
	// Enabled turns circle recognition on at startup
	Enabled bool `json:"enabled"`

	// Thresholds tune the sample filter and analyzer gates
	Thresholds gesture.Thresholds `json:"thresholds"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// APIEnabled enables the local HTTP/WebSocket event server
	APIEnabled bool `json:"api_enabled"`

	// APIAddr is the listen address of the event server
	APIAddr string `json:"api_addr"`

	// APIToken is an optional bearer token for API requests
	APIToken string `json:"api_token,omitempty"`

	// AllowAnyOrigin accepts WebSocket upgrades from any page origin.
	// State-changing API requests always require a same-origin caller.
	AllowAnyOrigin bool `json:"allow_any_origin"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level"`

	// LogFormat is text or json
	LogFormat string `json:"log_format"`

	// ShowTray shows the system tray icon
	ShowTray bool `json:"show_tray"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Gesture: GestureConfig{
			Enabled:    true,
			Thresholds: gesture.DefaultThresholds(),
		},
		General: GeneralConfig{
			APIEnabled:     true,
			APIAddr:        "127.0.0.1:18181",
			AllowAnyOrigin: false,
			LogLevel:       "info",
			LogFormat:      "text",
			ShowTray:       true,
		},
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     Config
	onChanged  []func(Config)
	log        *logrus.Entry
}

// NewManager creates a configuration manager backed by the per-user config file
func NewManager() (*Manager, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager backed by configPath
func NewManagerAt(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		config:     DefaultConfig(),
		log:        logrus.WithField("component", "config"),
	}
}

// DefaultPath returns the path to the per-user configuration file
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, AppName)
	default:
		configDir, _ = os.UserConfigDir()
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(configDir, AppName)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the backing file path
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file keeps the defaults.
// Invalid thresholds are replaced by the defaults with a warning.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.log.WithField("path", m.configPath).Debug("No config file, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", m.configPath, err)
	}
	if err := cfg.Gesture.Thresholds.Validate(); err != nil {
		m.log.WithError(err).Warn("Config: invalid gesture thresholds, using defaults")
		cfg.Gesture.Thresholds = gesture.DefaultThresholds()
	}

	m.Set(cfg)
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	m.log.Debugf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration and notifies change callbacks
func (m *Manager) Set(cfg Config) {
	m.mu.Lock()
	m.config = cfg
	callbacks := append([]func(Config){}, m.onChanged...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Update applies fn to a copy of the configuration and stores the result
func (m *Manager) Update(fn func(*Config)) Config {
	cfg := m.Get()
	fn(&cfg)
	m.Set(cfg)
	return cfg
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = append(m.onChanged, fn)
}
