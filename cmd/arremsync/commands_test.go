package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"arremsync/internal/config"
)

func TestTestCommandReportsEveryService(t *testing.T) {
	f := newFakeServices(t)
	cfgPath := setupCLITestEnv(t, f)

	out, _, err := runCLI(t, []string{"test"}, cfgPath)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	requireContains(t, out, "Emby")
	requireContains(t, out, "Radarr 1")
	requireContains(t, out, "radarr_1")
	requireContains(t, out, "ok")
}

func TestTestCommandFailsWhenAServiceIsDown(t *testing.T) {
	f := newFakeServices(t)
	f.embyDown = true
	cfgPath := setupCLITestEnv(t, f)

	out, _, err := runCLI(t, []string{"test", "--json"}, cfgPath)
	if !errors.Is(err, errConnectionsFailed) {
		t.Fatalf("expected errConnectionsFailed, got %v", err)
	}
	var statuses []struct {
		Service string `json:"service"`
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
	}
	if err := json.Unmarshal([]byte(out), &statuses); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(statuses) != 2 || statuses[0].OK || !statuses[1].OK || statuses[1].Name != "Radarr 1" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestInstancesCommand(t *testing.T) {
	f := newFakeServices(t)
	cfgPath := setupCLITestEnv(t, f)

	out, _, err := runCLI(t, []string{"instances", "--json"}, cfgPath)
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	var infos []instanceInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	want := instanceInfo{Number: 1, Name: "Instance 1 (radarr)", ArrType: "radarr", BaseURL: f.radarr.URL, HasAPIKey: true}
	if len(infos) != 1 || infos[0] != want {
		t.Fatalf("unexpected instances %+v", infos)
	}

	out, _, err = runCLI(t, []string{"instances"}, cfgPath)
	if err != nil {
		t.Fatalf("instances table: %v", err)
	}
	requireContains(t, out, "Instance 1 (radarr)")
	requireContains(t, out, "yes")
}

func TestConfigInitAndValidate(t *testing.T) {
	f := newFakeServices(t)
	cfgPath := setupCLITestEnv(t, f)

	out, _, err := runCLI(t, []string{"config", "validate"}, cfgPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Arr instances: 1")
	requireContains(t, out, "Lock directory: [ok]")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnvFileFlagMustExist(t *testing.T) {
	f := newFakeServices(t)
	cfgPath := setupCLITestEnv(t, f)

	_, _, err := runCLI(t, []string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "instances"}, cfgPath)
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestLogFlagsAreValidated(t *testing.T) {
	f := newFakeServices(t)
	cfgPath := setupCLITestEnv(t, f)

	_, _, err := runCLI(t, []string{"--log-level", "verbose", "sync", "--dry-run"}, cfgPath)
	if err == nil || !strings.Contains(err.Error(), "logging.level must be one of") {
		t.Fatalf("expected log level error, got %v", err)
	}
	if writes := f.writtenBodies(); len(writes) != 0 {
		t.Fatalf("unexpected writes %v", writes)
	}

	_, _, err = runCLI(t, []string{"--log-format", "xml", "instances"}, cfgPath)
	if err == nil || !strings.Contains(err.Error(), "logging.format must be console or json") {
		t.Fatalf("expected log format error, got %v", err)
	}

	if _, _, err := runCLI(t, []string{"--log-level", "DEBUG", "instances"}, cfgPath); err != nil {
		t.Fatalf("valid override rejected: %v", err)
	}
}

func TestTestDisplayNames(t *testing.T) {
	cfg := &config.Config{Arr: []config.ArrInstance{
		{Type: "radarr"},
		{Type: "sonarr", Name: "Anime"},
		{Type: "sonarr"},
	}}
	names := testDisplayNames(cfg)
	want := map[string]string{"emby": "Emby", "radarr_1": "Radarr 1", "sonarr_2": "Anime", "sonarr_3": "Sonarr 3"}
	for key, value := range want {
		if names[key] != value {
			t.Fatalf("names[%q] = %q, want %q", key, names[key], value)
		}
	}
}
