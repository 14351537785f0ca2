package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/kramik/kramik/storage/credential"
)

// Store owns the Identity/Credential pair for the lifetime of the process.
// All mutation flows through the Manager's operations; no other component
// writes to the durable storage directly.
//
// Invariant: a non-nil Identity never exists without a stored credential and
// vice versa, except while Restore is still pending.
type Store struct {
	mu       sync.RWMutex
	storage  credential.Storage
	identity *Identity
	token    string
	resolved bool
}

func NewStore(storage credential.Storage) *Store {
	return &Store{storage: storage}
}

// Restore reads the persisted credential once at startup and attempts to
// resolve it to an Identity through `resolve`. Resolution failure deletes the
// stored credential and leaves the store anonymous; it is never fatal.
// The store is in a deterministic resolved state when Restore returns.
func (s *Store) Restore(ctx context.Context, resolve func(ctx context.Context, token string) (Identity, error)) {
	defer func() {
		s.mu.Lock()
		s.resolved = true
		s.mu.Unlock()
	}()

	token, err := s.storage.Read()
	if err != nil {
		// covers ErrNotFound and unreadable storage alike: not authenticated
		return
	}

	identity, err := resolve(ctx, token)
	if err != nil {
		_ = s.storage.Delete()
		return
	}

	s.mu.Lock()
	s.identity = &identity
	s.token = token
	s.mu.Unlock()
}

// Set atomically replaces the in-memory Identity and persists the credential.
// On persistence failure the in-memory state is left untouched.
func (s *Store) Set(identity Identity, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Write(token); err != nil {
		return errors.Wrap(err, "persisting credential")
	}
	s.identity = &identity
	s.token = token
	s.resolved = true
	return nil
}

// Clear removes the in-memory Identity and deletes the persisted credential.
// Clearing an anonymous store is a no-op; Clear never fails the caller.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.token = ""
	s.resolved = true
	_ = s.storage.Delete()
}

// Identity returns a copy of the current identity, if any.
func (s *Store) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Token returns the current credential, if any. Used by the outbound request
// authorizer; it must never be mutated outside this store.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Resolved reports whether the startup restore check has completed (or a
// login/logout has settled the state since). Dependent views must not render
// before this is true.
func (s *Store) Resolved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved
}
