// ABOUTME: Tests for formlog configuration management.
// ABOUTME: Covers layered loading, save, defaults, validation, backend selection, and path expansion.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/formlog/internal/models"
)

// isolateEnv points config lookups at a temp dir and clears FORMLOG_ overrides.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(ConfigPathEnvVar, "")
	for _, key := range []string{"BACKEND", "DATA_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(EnvPrefix+key, "")
		os.Unsetenv(EnvPrefix + key)
	}
	os.Unsetenv(ConfigPathEnvVar)
	return tmpDir
}

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != BackendBadger {
		t.Errorf("GetBackend() = %q, want %q", got, BackendBadger)
	}
}

func TestGetBackendExplicit(t *testing.T) {
	cfg := &Config{Backend: BackendSQLite}
	if got := cfg.GetBackend(); got != BackendSQLite {
		t.Errorf("GetBackend() = %q, want %q", got, BackendSQLite)
	}
}

func TestGetDataDirDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	cfg := &Config{}

	if got := cfg.GetDataDir(); got != "/tmp/xdg-data/formlog" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/xdg-data/formlog")
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/formlog-test"}
	if got := cfg.GetDataDir(); got != "/tmp/formlog-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/formlog-test")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/formlog", filepath.Join(home, "data/formlog")},
		{"data/formlog", "data/formlog"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Backend != BackendBadger {
		t.Errorf("Expected default backend badger, got %q", cfg.Backend)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "console" {
		t.Errorf("Expected warn/console logging, got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.DataDir != "" {
		t.Errorf("Expected empty DataDir, got %q", cfg.DataDir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolateEnv(t)

	cfg := &Config{
		Backend:  BackendSQLite,
		DataDir:  "/tmp/formlog-data",
		LogLevel: "debug",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if loaded.Backend != BackendSQLite {
		t.Errorf("Backend mismatch: got %q, want %q", loaded.Backend, BackendSQLite)
	}
	if loaded.DataDir != "/tmp/formlog-data" {
		t.Errorf("DataDir mismatch: got %q, want %q", loaded.DataDir, "/tmp/formlog-data")
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("LogLevel mismatch: got %q", loaded.LogLevel)
	}
	if loaded.LogFormat != "console" {
		t.Errorf("Expected default LogFormat to survive, got %q", loaded.LogFormat)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	if err := (&Config{Backend: BackendSQLite, DataDir: "/from/file"}).Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	t.Setenv("FORMLOG_DATA_DIR", "/from/env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("Expected env to win, got %q", cfg.DataDir)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Expected file backend to survive, got %q", cfg.Backend)
	}
}

func TestConfigPathOverride(t *testing.T) {
	tmpDir := isolateEnv(t)
	path := filepath.Join(tmpDir, "custom.yaml")
	t.Setenv(ConfigPathEnvVar, path)

	if got := GetConfigPath(); got != path {
		t.Errorf("GetConfigPath() = %q, want %q", got, path)
	}

	if err := os.WriteFile(path, []byte("backend: sqlite\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Expected sqlite from custom path, got %q", cfg.Backend)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := isolateEnv(t)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: BackendSQLite}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "formlog")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestSaveOmitsEmpty(t *testing.T) {
	isolateEnv(t)

	if err := (&Config{Backend: BackendBadger}).Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "backend: badger" {
		t.Errorf("Expected only backend in YAML, got %q", data)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := isolateEnv(t)

	configDir := filepath.Join(tmpDir, "formlog")
	os.MkdirAll(configDir, 0750)
	os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("backend: [unclosed"), 0600)

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid YAML config")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	isolateEnv(t)
	t.Setenv("FORMLOG_BACKEND", "markdown")

	if _, err := Load(); err == nil {
		t.Error("Expected validation error for unknown backend")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"defaults", *defaultConfig(), false},
		{"bad backend", Config{Backend: "mongo"}, true},
		{"bad level", Config{LogLevel: "loud"}, true},
		{"bad format", Config{LogFormat: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := isolateEnv(t)

	got := GetConfigPath()
	want := filepath.Join(tmpDir, "formlog", "config.yaml")
	if got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestStorePath(t *testing.T) {
	if got, _ := StorePath(BackendBadger, "/data"); got != "/data/badger" {
		t.Errorf("badger path = %q", got)
	}
	if got, _ := StorePath(BackendSQLite, "/data"); got != "/data/formlog.db" {
		t.Errorf("sqlite path = %q", got)
	}
	if _, err := StorePath("markdown", "/data"); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestOpenStoreBackends(t *testing.T) {
	for _, backend := range []string{BackendBadger, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			tmpDir := t.TempDir()
			cfg := &Config{Backend: backend, DataDir: tmpDir}

			store, err := cfg.OpenStore()
			if err != nil {
				t.Fatalf("OpenStore() failed: %v", err)
			}
			defer store.Close()

			res, err := store.Insert(context.Background(), models.NewAnalysis("squat", 80))
			if err != nil || !res.Saved {
				t.Fatalf("Insert failed: %v %v", err, res.Err)
			}

			path, _ := StorePath(backend, tmpDir)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Errorf("Expected %s to be created", path)
			}
		})
	}
}

func TestOpenStoreInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "invalid", DataDir: "/tmp"}

	if _, err := cfg.OpenStore(); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	lc := cfg.LoggingConfig()
	if lc.Level != "debug" || lc.Format != "json" {
		t.Errorf("unexpected logging config: %+v", lc)
	}
}
