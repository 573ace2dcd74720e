package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// ErrNoResult is returned when saving before any merge has succeeded.
var ErrNoResult = errors.New("no merged video to save")

// SaveMergedVideo asks for a destination and writes the current merged video there.
// An empty path is returned when the dialog is dismissed.
func (a *App) SaveMergedVideo() (string, error) {
	result := a.Jobs.Result()
	if result == nil {
		return "", ErrNoResult
	}

	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	settings := a.currentSettings()
	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:                "Save merged video",
		DefaultDirectory:     settings.OutputDir,
		DefaultFilename:      mergedFileName(result.ContentType),
		CanCreateDirectories: true,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return a.ExportMergedVideo(path)
}

// ExportMergedVideo writes the current merged video to path, or to the
// output directory under a default name when path is empty.
func (a *App) ExportMergedVideo(path string) (string, error) {
	result := a.Jobs.Result()
	if result == nil {
		return "", ErrNoResult
	}

	data, ref, err := a.Media.Open(result.ID)
	if err != nil {
		return "", fmt.Errorf("open merged video: %w", err)
	}

	target := strings.TrimSpace(path)
	if target == "" {
		outputDir := a.currentSettings().OutputDir
		if outputDir == "" {
			return "", fmt.Errorf("output directory is not configured")
		}
		target = filepath.Join(outputDir, mergedFileName(ref.ContentType))
	}

	if err := writeFileAtomic(target, data); err != nil {
		return "", err
	}
	a.logInfo("merged video saved to %s", target)
	return target, nil
}

// mergedFileName picks a download name matching the returned container.
func mergedFileName(contentType string) string {
	ext := ".mp4"
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "video/webm":
		ext = ".webm"
	case "video/quicktime":
		ext = ".mov"
	case "video/x-matroska":
		ext = ".mkv"
	}
	return "merged_video" + ext
}

// writeFileAtomic writes into a temp file beside destination and renames it into place.
func writeFileAtomic(destinationPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("prepare destination directory: %w", err)
	}

	tmpPath := destinationPath + ".part"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write destination file: %w", writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close destination file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destinationPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move file into place: %w", err)
	}
	return nil
}
