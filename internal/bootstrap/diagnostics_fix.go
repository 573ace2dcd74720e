package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"media-merger/internal/config"
	"media-merger/internal/diagnostics"
	"media-merger/internal/domain"
)

// FixDiagnostic applies a remediation for one failed diagnostic item.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case diagnostics.ItemMergeEndpoint:
		settings, settingsChanged = resetMergeEndpoint(settings)
	case diagnostics.ItemOutputDir:
		settings, settingsChanged, fixErr = installOrFixOutputDir(settings)
	case diagnostics.ItemMergeService:
		fixErr = fmt.Errorf("merge service at %s must be started outside the app", settings.EndpointURL)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(effectiveSettings(settings))
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	// Fixes touch the file; environment overrides still win in memory.
	report := a.refreshDiagnosticsFromSettings(effectiveSettings(settings))
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func resetMergeEndpoint(settings domain.Settings) (domain.Settings, bool) {
	if settings.EndpointURL == config.DefaultEndpointURL {
		return settings, false
	}
	settings.EndpointURL = config.DefaultEndpointURL
	return settings, true
}

func installOrFixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	changed := false
	if outputDir == "" {
		outputDir = config.DefaultSettings().OutputDir
		settings.OutputDir = outputDir
		changed = true
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	return settings, changed, nil
}
