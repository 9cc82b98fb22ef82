package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, namespace, p string, content []byte) error {
	namespace, p, err := cleanKey(namespace, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectKey(namespace, p)] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, namespace, p string) ([]byte, error) {
	namespace, p, err := cleanKey(namespace, p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[objectKey(namespace, p)]
	if !ok {
		return nil, notFound(namespace, p)
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, namespace string) ([]string, error) {
	namespace, err := cleanNamespace(namespace)
	if err != nil {
		return nil, err
	}
	prefix := namespace + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
