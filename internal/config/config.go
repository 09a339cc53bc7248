// Package config provides configuration management for cloudsave.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is the single configuration source for the CLI and the save-task
// runner.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\cloudsave\config
//   - Unix: ~/.config/cloudsave/config
//
// INI format:
//
//	[provider]
//	kind = cloud189
//	base_url = https://cloud.189.cn
//	cookie = <session-cookie>
//
//	[save]
//	default_target_dir = -11
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port =
//	user =
//	password =
//	no_proxy =
type Config struct {
	// Provider connection settings. The provider authenticates every call
	// with the session cookie; there is no username/password login flow.
	ProviderKind string `ini:"kind"`
	BaseURL      string `ini:"base_url"`
	Cookie       string `ini:"cookie"`

	// Save settings
	DefaultTargetDir string `ini:"default_target_dir"`

	// Proxy settings
	Proxy ProxyConfig
}

// ProxyConfig contains outbound proxy settings.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic", "ntlm".
	Mode string `ini:"mode"`

	Host     string `ini:"host"`
	Port     string `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`

	// NoProxy is a comma-separated bypass list.
	NoProxy string `ini:"no_proxy"`
}

// Validation errors
var (
	ErrMissingBaseURL      = errors.New("provider base_url is required")
	ErrMissingProviderKind = errors.New("provider kind is required")
	ErrMissingCookie       = errors.New("provider session cookie is required")
	ErrInvalidProxyMode    = errors.New("proxy mode must be one of: no-proxy, system, basic, ntlm")
)

// DefaultConfigPath returns the default path for the config file.
// - Windows: %USERPROFILE%\.config\cloudsave\config
// - Unix: ~/.config/cloudsave/config
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "cloudsave")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "cloudsave")
	}

	return filepath.Join(configDir, "config"), nil
}

// DefaultTasksPath returns the default path for the save-task store, next to
// the config file.
func DefaultTasksPath() (string, error) {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cfgPath), "tasks.toml"), nil
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		ProviderKind:     "cloud189",
		BaseURL:          "https://cloud.189.cn",
		DefaultTargetDir: "-11",
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	providerSection := iniFile.Section("provider")
	cfg.ProviderKind = providerSection.Key("kind").MustString(cfg.ProviderKind)
	cfg.BaseURL = providerSection.Key("base_url").MustString(cfg.BaseURL)
	cfg.Cookie = providerSection.Key("cookie").String()

	saveSection := iniFile.Section("save")
	cfg.DefaultTargetDir = saveSection.Key("default_target_dir").MustString(cfg.DefaultTargetDir)

	proxySection := iniFile.Section("proxy")
	cfg.Proxy.Mode = proxySection.Key("mode").MustString(cfg.Proxy.Mode)
	cfg.Proxy.Host = proxySection.Key("host").String()
	cfg.Proxy.Port = proxySection.Key("port").String()
	cfg.Proxy.User = proxySection.Key("user").String()
	cfg.Proxy.Password = proxySection.Key("password").String()
	cfg.Proxy.NoProxy = proxySection.Key("no_proxy").String()

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if they don't exist. The session cookie is
// stored in the file - written with restrictive permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	providerSection, err := iniFile.NewSection("provider")
	if err != nil {
		return fmt.Errorf("failed to create provider section: %w", err)
	}
	providerSection.Key("kind").SetValue(cfg.ProviderKind)
	providerSection.Key("base_url").SetValue(cfg.BaseURL)
	providerSection.Key("cookie").SetValue(cfg.Cookie)

	saveSection, err := iniFile.NewSection("save")
	if err != nil {
		return fmt.Errorf("failed to create save section: %w", err)
	}
	saveSection.Key("default_target_dir").SetValue(cfg.DefaultTargetDir)

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.Proxy.Mode)
	proxySection.Key("host").SetValue(cfg.Proxy.Host)
	proxySection.Key("port").SetValue(cfg.Proxy.Port)
	proxySection.Key("user").SetValue(cfg.Proxy.User)
	proxySection.Key("password").SetValue(cfg.Proxy.Password)
	proxySection.Key("no_proxy").SetValue(cfg.Proxy.NoProxy)

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Credentials are sensitive
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is usable for provider calls.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ProviderKind) == "" {
		return ErrMissingProviderKind
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	if strings.TrimSpace(cfg.Cookie) == "" {
		return ErrMissingCookie
	}

	switch strings.ToLower(cfg.Proxy.Mode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}

	return nil
}
