// Package appconfig manages loading and interpreting the client's local settings.
// Provider credentials are not part of it: the analysis server stores those.
package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the client's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the flat file name older setups used.
	legacyConfigPath = "config.json"
	// DefaultServerURL is where the analysis service listens by default.
	DefaultServerURL = "http://localhost:1832"
	// defaultLogFile receives the diagnostic log when no path is configured.
	defaultLogFile = "datasheet.log"
)

// Config represents the client's configuration after flags, file and defaults are merged.
type Config struct {
	Server             string `json:"server" mapstructure:"server"`
	Debug              bool   `json:"debug" mapstructure:"debug"`
	JSONMode           bool   `json:"jsonMode" mapstructure:"jsonMode"`
	TimeoutSeconds     int    `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile            string `json:"logFile,omitempty" mapstructure:"logFile"`
	Model              string `json:"model,omitempty" mapstructure:"model"`
	ExportMarkdownPath string `json:"exportMarkdown,omitempty" mapstructure:"exportMarkdown"`
	MetricsFile        string `json:"metricsFile,omitempty" mapstructure:"metricsFile"`
	ConfigPath         string `json:"-" mapstructure:"-"`
}

// ServerURL returns the analysis server's base URL without a trailing slash.
func (c Config) ServerURL() string {
	server := strings.TrimSpace(c.Server)
	if server == "" {
		server = DefaultServerURL
	}
	return strings.TrimRight(server, "/")
}

// RequestTimeout returns the per-request HTTP timeout. Zero means requests wait
// until the server answers.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the client log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// Validate checks that the merged settings are usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL())
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.Server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server URL %q: scheme must be http or https", c.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %q: missing host", c.Server)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.TimeoutSeconds)
	}
	return nil
}

// ErrNoConfigFile reports that no configuration file exists where one was looked for.
var ErrNoConfigFile = errors.New("no configuration file found")

// ResolvePath returns the configuration file to read for path, with fallback
// to the legacy path when the default one is missing.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	err := checkFile(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if path != DefaultConfigPath {
		return "", fmt.Errorf("%w at %q", ErrNoConfigFile, path)
	}

	legacyErr := checkFile(legacyConfigPath)
	if legacyErr == nil {
		return legacyConfigPath, nil
	}
	if errors.Is(legacyErr, os.ErrNotExist) {
		return "", fmt.Errorf("%w (searched %q and %q)", ErrNoConfigFile, DefaultConfigPath, legacyConfigPath)
	}
	return "", fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
}

// checkFile is a helper function that confirms path is a regular file.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
