package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

// ErrObjectNotFound is returned by Get for unknown paths.
var ErrObjectNotFound = errors.New("media: object not found")

// ObjectStore persists uploaded objects and resolves their public URLs.
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, data []byte) error
	Get(ctx context.Context, objectPath string) ([]byte, error)
	PublicURL(objectPath string) string
}

// GCSStore writes objects to a Cloud Storage bucket readable by allUsers.
type GCSStore struct {
	Client        *storage.Client
	Bucket        string
	PublicBaseURL string
}

// NewGCSStore constructs a GCSStore.
func NewGCSStore(client *storage.Client, bucket, publicBaseURL string) *GCSStore {
	return &GCSStore{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: publicBaseURL,
	}
}

// Put uploads data. Existing objects are never overwritten.
func (s *GCSStore) Put(ctx context.Context, objectPath, contentType string, data []byte) error {
	if s == nil || s.Client == nil {
		return errors.New("media: storage client is nil")
	}
	if s.Bucket == "" {
		return errors.New("media: bucket is empty")
	}
	obj := strings.TrimSpace(objectPath)
	if obj == "" {
		return errors.New("media: object path is empty")
	}
	w := s.Client.Bucket(s.Bucket).Object(obj).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "public, max-age=31536000, immutable"
	w.ChunkSize = 0
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("media: write %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("media: close %s: %w", obj, err)
	}
	return nil
}

// Get downloads an object.
func (s *GCSStore) Get(ctx context.Context, objectPath string) ([]byte, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("media: storage client is nil")
	}
	r, err := s.Client.Bucket(s.Bucket).Object(strings.TrimSpace(objectPath)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("media: open %s: %w", objectPath, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// PublicURL returns base/bucket/path with each path segment escaped.
func (s *GCSStore) PublicURL(objectPath string) string {
	return publicURL(s.PublicBaseURL, s.Bucket, objectPath)
}

func publicURL(base, bucket, objectPath string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.Join(parts, "/"))
}

// MemoryStore keeps objects in memory. Used when no bucket is configured and in tests.
type MemoryStore struct {
	Bucket  string
	BaseURL string

	mu      sync.Mutex
	objects map[string]Object
}

// Object is a stored blob.
type Object struct {
	ContentType string
	Data        []byte
}

// Put stores data, failing when the path is already taken.
func (m *MemoryStore) Put(_ context.Context, objectPath, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string]Object)
	}
	if _, ok := m.objects[objectPath]; ok {
		return fmt.Errorf("media: object %s already exists", objectPath)
	}
	m.objects[objectPath] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return nil
}

// PublicURL implements ObjectStore.
func (m *MemoryStore) PublicURL(objectPath string) string {
	return publicURL(m.BaseURL, m.Bucket, objectPath)
}

// Get implements ObjectStore.
func (m *MemoryStore) Get(_ context.Context, objectPath string) ([]byte, error) {
	o, ok := m.Object(objectPath)
	if !ok {
		return nil, ErrObjectNotFound
	}
	return o.Data, nil
}

// Object returns a stored object with its content type.
func (m *MemoryStore) Object(objectPath string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[objectPath]
	return o, ok
}

// Paths lists stored object paths.
func (m *MemoryStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	return out
}
