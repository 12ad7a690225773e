// Package testsupport builds throwaway configurations for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"arremsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose lock and log paths live in a per-test
// temp directory. Retries are off and logging is quiet.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Emby = config.Emby{URL: "http://127.0.0.1:1", APIKey: "test"}
	cfgVal.Sync.LockPath = filepath.Join(base, "state", "sync.lock")
	cfgVal.HTTP.MaxRetries = 0
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithEmby points the config at an Emby server.
func WithEmby(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Emby = config.Emby{URL: url, APIKey: apiKey}
	}
}

// WithArr appends an Arr instance.
func WithArr(arrType, url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Arr = append(b.cfg.Arr, config.ArrInstance{Type: arrType, URL: url, APIKey: apiKey})
	}
}

// WithLogFile enables the rotated log file under the temp directory.
func WithLogFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.File = filepath.Join(b.baseDir, "logs", "arremsync.log")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Sync.LockPath))
}

// WriteConfig encodes cfg as TOML at path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
