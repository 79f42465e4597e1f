package lsp

import (
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// DocumentStore holds the text of open playgrounds. When full, the least
// recently used document is evicted.
type DocumentStore struct {
	cache  *lru.Cache
	logger *zap.Logger
}

// NewDocumentStore creates a store holding at most size documents.
func NewDocumentStore(size int, logger *zap.Logger) (*DocumentStore, error) {
	s := &DocumentStore{logger: logger.With(zap.String("component", "documents"))}
	cache, err := lru.NewWithEvict(size, s.evicted)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

func (s *DocumentStore) evicted(key, _ any) {
	s.logger.Info("Document cache limit reached, evicted least recently used document",
		zap.String("uri", key.(string)),
	)
}

// Set stores text for uri and marks it most recently used.
func (s *DocumentStore) Set(uri, text string) {
	s.cache.Add(uri, text)
}

// Get returns the text for uri and marks it most recently used.
func (s *DocumentStore) Get(uri string) (string, bool) {
	v, ok := s.cache.Get(uri)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Remove forgets uri.
func (s *DocumentStore) Remove(uri string) {
	s.cache.Remove(uri)
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	return s.cache.Len()
}

// Resize changes the capacity, evicting documents if it shrinks.
func (s *DocumentStore) Resize(size int) {
	if evicted := s.cache.Resize(size); evicted > 0 {
		s.logger.Info("Document cache shrunk", zap.Int("evicted", evicted), zap.Int("size", size))
	}
}
