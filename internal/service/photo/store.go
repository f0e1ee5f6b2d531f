package photo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
)

// BucketStore writes photos to a Cloud Storage bucket.
type BucketStore struct {
	bucket  *storage.BucketHandle
	name    string
	baseURL string
}

// NewBucketStore creates a store on bucket, which is named name. Public
// URLs use the Firebase download endpoint.
func NewBucketStore(bucket *storage.BucketHandle, name string) *BucketStore {
	return &BucketStore{
		bucket:  bucket,
		name:    name,
		baseURL: "https://firebasestorage.googleapis.com/v0/b/" + name + "/o/",
	}
}

func (s *BucketStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return s.URL(name), nil
}

// URL returns the public download URL of name.
func (s *BucketStore) URL(name string) string {
	return s.baseURL + url.PathEscape(name) + "?alt=media"
}

// MemoryStore keeps objects in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryStore creates a store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *MemoryStore) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return s.baseURL + "/" + name, nil
}

// Object returns the stored bytes of name.
func (s *MemoryStore) Object(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[name]
	return b, ok
}

// Names returns every stored object name.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	return names
}

// ServeHTTP serves stored objects by name so that the URLs returned by Put
// resolve when the store is mounted at its base URL path.
func (s *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	data, ok := s.Object(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Method == http.MethodGet {
		_, _ = w.Write(data)
	}
}

var (
	_ Store        = (*BucketStore)(nil)
	_ Store        = (*MemoryStore)(nil)
	_ http.Handler = (*MemoryStore)(nil)
)
