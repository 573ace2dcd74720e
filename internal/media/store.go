// Package media keeps merged videos in memory behind revocable local URLs
// that the webview can play.
package media

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-merger/internal/domain"
)

// PathPrefix is the URL path under which references are served.
const PathPrefix = "/media/"

// DefaultContentType is used when the merge service omits Content-Type.
const DefaultContentType = "video/mp4"

// ErrNotFound is returned for unknown or revoked references.
var ErrNotFound = errors.New("media reference not found")

type entry struct {
	media domain.MergedMedia
	data  []byte
}

// Store holds merged blobs keyed by reference id.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	newID func() string
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]entry),
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Create stores data and returns its reference.
func (s *Store) Create(data []byte, contentType string) domain.MergedMedia {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = DefaultContentType
	}

	id := s.newID()
	media := domain.MergedMedia{
		ID:          id,
		URL:         PathPrefix + id,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   s.now().UTC(),
	}

	s.mu.Lock()
	s.items[id] = entry{media: media, data: data}
	s.mu.Unlock()
	return media
}

// Open returns the stored bytes for a reference id.
func (s *Store) Open(id string) ([]byte, domain.MergedMedia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.MergedMedia{}, ErrNotFound
	}
	return item.data, item.media, nil
}

// Revoke releases a reference. Later reads return ErrNotFound.
func (s *Store) Revoke(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Len reports how many references are live.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ServeHTTP serves GET/HEAD for PathPrefix references with range support.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := IDFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, media, err := s.Open(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", media.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "", media.CreatedAt, bytes.NewReader(data))
}

// IDFromPath extracts the reference id from a served URL path.
func IDFromPath(path string) (string, bool) {
	if !strings.HasPrefix(path, PathPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(path, PathPrefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// NewStoreForTests creates a store with deterministic ids and clock.
func NewStoreForTests(newID func() string, now func() time.Time) *Store {
	return &Store{
		items: make(map[string]entry),
		newID: newID,
		now:   now,
	}
}
