package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyMedia is returned when storing a clip with no bytes
var ErrEmptyMedia = errors.New("media is empty")

// Media is a stored clip
type Media struct {
	MIMEType  string
	Data      []byte
	CreatedAt time.Time
}

// MediaStore hands out playable handles for captured and generated clips.
// A revoked handle no longer resolves.
type MediaStore struct {
	media map[string]Media
	mu    sync.RWMutex
}

func NewMediaStore() *MediaStore {
	return &MediaStore{media: make(map[string]Media)}
}

// Put stores data and returns its handle
func (m *MediaStore) Put(mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyMedia
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	handle := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[handle] = Media{MIMEType: mimeType, Data: data, CreatedAt: time.Now()}
	return handle, nil
}

func (m *MediaStore) Get(handle string) (Media, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	media, ok := m.media[handle]
	return media, ok
}

func (m *MediaStore) Revoke(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.media, handle)
}

// Len reports how many handles are live
func (m *MediaStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.media)
}
