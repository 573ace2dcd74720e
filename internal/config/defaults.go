package config

import (
	"os"
	"path/filepath"
	"strings"

	"media-merger/internal/domain"
)

const (
	// DefaultEndpointURL is where the local merge service listens out of the box.
	DefaultEndpointURL = "http://localhost:5000/merge"
	DefaultLogLevel    = "info"

	EnvEndpointURL = "MEDIA_MERGER_ENDPOINT"
	EnvLogLevel    = "MEDIA_MERGER_LOG_LEVEL"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		EndpointURL: DefaultEndpointURL,
		OutputDir:   filepath.Join(homeDir, "Videos", "Merged"),
		LogLevel:    DefaultLogLevel,
	}
}

// ApplyEnv overlays environment overrides on loaded settings.
func ApplyEnv(settings domain.Settings) domain.Settings {
	if v := strings.TrimSpace(os.Getenv(EnvEndpointURL)); v != "" {
		settings.EndpointURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		settings.LogLevel = v
	}
	return settings
}
