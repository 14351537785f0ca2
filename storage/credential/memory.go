package credential

import "sync"

// memoryStorage is an in-memory Storage, primarily intended for tests.
type memoryStorage struct {
	mu    sync.RWMutex
	token string
	set   bool
}

var _ Storage = (*memoryStorage)(nil)

func NewMemoryStorage(token ...string) Storage {
	s := &memoryStorage{}
	if len(token) > 0 && token[0] != "" {
		s.token = token[0]
		s.set = true
	}
	return s
}

func (s *memoryStorage) Read() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return "", ErrNotFound
	}
	return s.token, nil
}

func (s *memoryStorage) Write(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

func (s *memoryStorage) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}
