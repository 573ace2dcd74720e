package config

import (
	"os"
	"path/filepath"
	"testing"

	"media-merger/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.EndpointURL != "http://localhost:5000/merge" {
		t.Fatalf("endpoint = %q, want local merge endpoint", cfg.EndpointURL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.OutputDir == "" {
		t.Fatal("expected non-empty output dir")
	}
	if cfg.RequestTimeoutSeconds != 0 {
		t.Fatalf("timeout = %d, want 0", cfg.RequestTimeoutSeconds)
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.EndpointURL != DefaultEndpointURL {
		t.Fatalf("endpoint = %q, want %q", got.EndpointURL, DefaultEndpointURL)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := domain.Settings{
		EndpointURL:           "http://merge.local:9000/merge",
		OutputDir:             "/out",
		LogLevel:              "debug",
		RequestTimeoutSeconds: 30,
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadFillsMissingFields checks partial files from older versions.
func TestJSONStoreLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"outputDir":"/videos"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.OutputDir != "/videos" {
		t.Fatalf("output dir = %q, want /videos", got.OutputDir)
	}
	if got.EndpointURL != DefaultEndpointURL {
		t.Fatalf("endpoint = %q, want default", got.EndpointURL)
	}
	if got.LogLevel != DefaultLogLevel {
		t.Fatalf("log level = %q, want default", got.LogLevel)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}

// TestApplyEnvOverrides checks environment overrides win over file values.
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvEndpointURL, "http://10.0.0.2:5000/merge")
	t.Setenv(EnvLogLevel, "")

	got := ApplyEnv(domain.Settings{EndpointURL: DefaultEndpointURL, LogLevel: "warning"})
	if got.EndpointURL != "http://10.0.0.2:5000/merge" {
		t.Fatalf("endpoint = %q, want env override", got.EndpointURL)
	}
	if got.LogLevel != "warning" {
		t.Fatalf("log level = %q, want unchanged", got.LogLevel)
	}
}
