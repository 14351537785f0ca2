package stubapi

import (
	"context"
	"sync"
	"time"
)

// Store tracks revoked token IDs so logged-out credentials stop verifying.
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// MemoryStore is an in-memory implementation of the Store interface.
// Revocations past their token's natural expiry are harmless, so there is no
// janitor: stale entries are swept on the next revocation.
type MemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // token ID -> revocation deadline
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time)}
}

// InvalidateToken marks a token as revoked until its natural expiry.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, deadline := range s.revoked {
		if now.After(deadline) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(expiry)
	return nil
}

// IsTokenInvalidated checks if a token is revoked.
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, ok := s.revoked[tokenID]
	return ok && time.Now().Before(deadline), nil
}
