package selection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"media-merger/internal/domain"
)

// ErrIncomplete is returned when either list is empty at submit time.
var ErrIncomplete = errors.New("both audio and video selections are required")

// Selection holds the current audio and video picks.
type Selection struct {
	mu    sync.RWMutex
	audio []domain.MediaFile
	video []domain.MediaFile
}

// Snapshot is an immutable copy of both lists.
type Snapshot struct {
	Audio []domain.MediaFile `json:"audio"`
	Video []domain.MediaFile `json:"video"`
}

// New creates an empty selection.
func New() *Selection {
	return &Selection{}
}

// SetAudio replaces the audio list.
func (s *Selection) SetAudio(files []domain.MediaFile) {
	s.set(domain.MediaKindAudio, files)
}

// SetVideo replaces the video list.
func (s *Selection) SetVideo(files []domain.MediaFile) {
	s.set(domain.MediaKindVideo, files)
}

// Clear empties both lists.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = nil
	s.video = nil
}

// Snapshot returns copies of both lists.
func (s *Selection) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Audio: append([]domain.MediaFile(nil), s.audio...),
		Video: append([]domain.MediaFile(nil), s.video...),
	}
}

func (s *Selection) set(kind domain.MediaKind, files []domain.MediaFile) {
	list := make([]domain.MediaFile, len(files))
	for i, file := range files {
		file.Kind = kind
		list[i] = file
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == domain.MediaKindAudio {
		s.audio = list
	} else {
		s.video = list
	}
}

// Ready reports whether both lists are non-empty.
func (s Snapshot) Ready() bool {
	return len(s.Audio) > 0 && len(s.Video) > 0
}

// Pair returns the first audio and first video file. Extra picks are ignored.
func (s Snapshot) Pair() (audio, video domain.MediaFile, err error) {
	if !s.Ready() {
		return domain.MediaFile{}, domain.MediaFile{}, ErrIncomplete
	}
	return s.Audio[0], s.Video[0], nil
}

// Names returns the display names of one list in order.
func Names(files []domain.MediaFile) []string {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	return names
}

// FilesFromPaths resolves picker paths into media files, skipping blanks.
func FilesFromPaths(kind domain.MediaKind, paths []string, stat func(string) (os.FileInfo, error)) ([]domain.MediaFile, error) {
	files := make([]domain.MediaFile, 0, len(paths))
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}

		info, err := stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s file: %s: %w", kind, path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s selection is a directory: %s", kind, path)
		}

		files = append(files, domain.MediaFile{
			Name: filepath.Base(path),
			Path: path,
			Size: info.Size(),
			Kind: kind,
		})
	}
	return files, nil
}
