package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// BlobStore persists evidence photographs and tracking QR images.
type BlobStore interface {
	// Put stores data under key and returns the public URL of the object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

const (
	PhotoFolder = "evidence_photos"
	QRFolder    = "evidence_qrcodes"
)

// PhotoKey builds the object key for an evidence photo.
func PhotoKey(evidenceID, ext string) string {
	return fmt.Sprintf("%s/%s%s", PhotoFolder, evidenceID, ext)
}

// QRKey builds the object key for an evidence tracking code image.
func QRKey(evidenceID string) string {
	return fmt.Sprintf("%s/%s.png", QRFolder, evidenceID)
}

// MemoryStore keeps blobs in process memory. Used when no bucket is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
	// FailOn makes Put fail for keys with this prefix. Test hook.
	FailOn string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBaseURL prefixes URLs handed out by an in-memory store. Nothing serves
// them over HTTP.
const MemoryBaseURL = "memory://blobs"

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = MemoryBaseURL
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn != "" && strings.HasPrefix(key, m.FailOn) {
		return "", fmt.Errorf("memory store: put %s refused", key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = memoryObject{data: buf, contentType: contentType}
	return m.baseURL + "/" + key, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// Keys lists stored keys with the given prefix.
func (m *MemoryStore) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }
