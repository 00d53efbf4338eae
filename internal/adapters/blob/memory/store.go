package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"petmatch/internal/ports/blob"
)

// Store guarda los archivos en memoria; la URL es BaseURL + key.
type Store struct {
	mu      sync.RWMutex
	objects map[string]stored
	baseURL string
}

type stored struct {
	contentType string
	data        []byte
}

func NewStore(baseURL string) *Store {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &Store{objects: make(map[string]stored), baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) Put(ctx context.Context, key string, obj blob.Object) (blob.Stored, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return blob.Stored{}, errors.New("blob key required")
	}
	if obj.Body == nil {
		return blob.Stored{}, errors.New("blob body required")
	}

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return blob.Stored{}, err
	}

	s.mu.Lock()
	s.objects[key] = stored{contentType: obj.ContentType, data: data}
	s.mu.Unlock()

	return blob.Stored{Key: key, URL: s.baseURL + "/" + key}, nil
}

// Delete es idempotente: borrar algo que no existe no es error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, strings.Trim(strings.TrimSpace(key), "/"))
	return nil
}

// Has se usa en tests.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
