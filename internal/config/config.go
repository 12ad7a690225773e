package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Supported Arr instance types.
const (
	ArrTypeRadarr = "radarr"
	ArrTypeSonarr = "sonarr"
)

// Emby contains media server connection settings.
type Emby struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// ArrInstance describes one Radarr or Sonarr instance.
type ArrInstance struct {
	Type   string `toml:"type" validate:"required,oneof=radarr sonarr"`
	URL    string `toml:"url" validate:"required,http_url"`
	APIKey string `toml:"api_key" validate:"required"`
	Name   string `toml:"name"`
}

// DisplayName returns the configured name or a numbered fallback such as
// "Instance 2 (sonarr)". Numbers are 1-based.
func (a ArrInstance) DisplayName(number int) string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Instance %d (%s)", number, a.Type)
}

// ServiceName returns the probe key for the instance, e.g. "radarr_1".
func (a ArrInstance) ServiceName(number int) string {
	return fmt.Sprintf("%s_%d", a.Type, number)
}

// Sync contains reconciliation run settings.
type Sync struct {
	DryRun    bool   `toml:"dry_run"`
	BatchSize int    `toml:"batch_size"`
	LockPath  string `toml:"lock_path"`
}

// HTTP contains gateway timeout, retry, rate and breaker settings.
type HTTP struct {
	ProbeTimeoutSeconds   int     `toml:"probe_timeout_seconds"`
	TagsTimeoutSeconds    int     `toml:"tags_timeout_seconds"`
	ListingTimeoutSeconds int     `toml:"listing_timeout_seconds"`
	WriteTimeoutSeconds   int     `toml:"write_timeout_seconds"`
	MaxRetries            int     `toml:"max_retries"`
	RetryBackoffSeconds   float64 `toml:"retry_backoff_seconds"`
	MaxBackoffSeconds     float64 `toml:"max_backoff_seconds"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	BreakerFailures       int     `toml:"breaker_failures"`
	BreakerOpenSeconds    int     `toml:"breaker_open_seconds"`
}

// ProbeTimeout returns the connectivity probe timeout.
func (h HTTP) ProbeTimeout() time.Duration { return seconds(h.ProbeTimeoutSeconds) }

// TagsTimeout returns the Arr tag listing timeout.
func (h HTTP) TagsTimeout() time.Duration { return seconds(h.TagsTimeoutSeconds) }

// ListingTimeout returns the timeout for full library listings.
func (h HTTP) ListingTimeout() time.Duration { return seconds(h.ListingTimeoutSeconds) }

// WriteTimeout returns the tag write timeout.
func (h HTTP) WriteTimeout() time.Duration { return seconds(h.WriteTimeoutSeconds) }

// RetryBackoff returns the base delay between retries.
func (h HTTP) RetryBackoff() time.Duration {
	return time.Duration(h.RetryBackoffSeconds * float64(time.Second))
}

// MaxBackoff returns the cap applied to retry delays.
func (h HTTP) MaxBackoff() time.Duration {
	return time.Duration(h.MaxBackoffSeconds * float64(time.Second))
}

// BreakerOpen returns how long the Emby breaker stays open after tripping.
func (h HTTP) BreakerOpen() time.Duration { return seconds(h.BreakerOpenSeconds) }

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

// Logging contains log output settings.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config encapsulates all configuration values for arremsync.
type Config struct {
	Emby    Emby          `toml:"emby"`
	Arr     []ArrInstance `toml:"arr"`
	Sync    Sync          `toml:"sync"`
	HTTP    HTTP          `toml:"http"`
	Logging Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/arremsync/config.toml")
}

// Load reads configuration from disk, overlays ARREM_ environment variables,
// normalizes, and validates it. It returns the config, the resolved file path,
// and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup lookupFunc) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. An empty
// path means ".env" in the working directory, which may be absent. An
// explicitly named file must exist. It reports whether a file was loaded.
func LoadDotEnv(path string) (bool, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	expanded, err := expandPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return false, nil
		}
		return false, fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return false, fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return true, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("arremsync.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		switch {
		case pathValue == "~":
			pathValue = home
		case len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\'):
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath resolves ~ and relative segments into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the provided path.
// Existing files are left alone unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
